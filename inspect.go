package h5cloud

import (
	"github.com/pkg/errors"

	"github.com/scigolib/h5cloud/internal/core"
)

// InspectVariable resolves path and returns its metadata without reading
// data, optionally along with its attributes.
func (h *Handle) InspectVariable(path string, withAttrs bool) (*VariableMetadata, []AttributeResult, error) {
	obj, err := resolvePath(h.cache, h.params, h.rootAddress, path)
	if err != nil {
		return nil, nil, err
	}
	info, err := extractDatasetInfo(obj, h.params)
	if err != nil {
		return nil, nil, err
	}
	if info.dataspace == nil || info.datatype == nil {
		return nil, nil, classify(ErrFormat, errors.Errorf("%q is missing dataspace/datatype messages", path))
	}

	meta := &VariableMetadata{
		Path:       path,
		Dimensions: info.dataspace.Dimensions,
		Datatype:   classifyDatatype(info.datatype),
		TypeSize:   uint64(info.datatype.Size),
		Chunked:    info.layout != nil && info.layout.IsChunked(),
	}

	var attrs []AttributeResult
	if withAttrs {
		attrs = attributesFromInfo(info)
	}
	return meta, attrs, nil
}

// ListGroup lists the immediate children of the group at path. When
// withInspect is true, each child dataset is also resolved to its
// VariableMetadata (and each child group recursed into, one level at a
// time) instead of returning bare names.
func (h *Handle) ListGroup(path string, withAttrs, withInspect bool) ([]GroupEntry, error) {
	obj, err := resolvePath(h.cache, h.params, h.rootAddress, path)
	if err != nil {
		return nil, err
	}
	return h.listChildren(obj, withAttrs, withInspect)
}

func (h *Handle) listChildren(obj *resolvedObject, withAttrs, withInspect bool) ([]GroupEntry, error) {
	names, addrs, err := h.childNamesAndAddresses(obj)
	if err != nil {
		return nil, err
	}

	entries := make([]GroupEntry, 0, len(names))
	for i, name := range names {
		childHeader, err := core.ReadObjectHeader(h.cache, addrs[i], h.params)
		if err != nil {
			return nil, classify(ErrFormat, errors.Wrapf(err, "child object header for %q", name))
		}
		childObj := &resolvedObject{header: childHeader, address: addrs[i]}

		isGroup := hasGroupMessages(childHeader)
		entry := GroupEntry{Name: name, IsGroup: isGroup}

		if withInspect {
			if isGroup {
				children, err := h.listChildren(childObj, withAttrs, withInspect)
				if err != nil {
					return nil, err
				}
				entry.Children = children
			} else {
				info, err := extractDatasetInfo(childObj, h.params)
				if err != nil {
					return nil, err
				}
				if info.dataspace != nil && info.datatype != nil {
					entry.Metadata = &VariableMetadata{
						Path:       name,
						Dimensions: info.dataspace.Dimensions,
						Datatype:   classifyDatatype(info.datatype),
						TypeSize:   uint64(info.datatype.Size),
						Chunked:    info.layout != nil && info.layout.IsChunked(),
					}
				}
				if withAttrs {
					entry.Attrs = attributesFromInfo(info)
				}
			}
		}

		entries = append(entries, entry)
	}
	return entries, nil
}

func hasGroupMessages(header *core.ObjectHeader) bool {
	for _, m := range header.Messages {
		if m.Type == core.MsgSymbolTable || m.Type == core.MsgLinkInfo {
			return true
		}
	}
	return false
}
