package h5cloud

import (
	"github.com/pkg/errors"

	"github.com/scigolib/h5cloud/internal/core"
	"github.com/scigolib/h5cloud/internal/structures"
)

// resolvedObject is what path resolution yields: the target's flattened
// object header plus the address it lives at (needed by dense-storage
// message types that themselves carry addresses relative to the file).
type resolvedObject struct {
	header  *core.ObjectHeader
	address uint64
}

// resolvePath walks the object-header graph from rootAddress following
// each path component (component G invoked from the coordinator, not
// from internal/core — see DESIGN.md for why that avoids an import
// cycle between internal/core and internal/structures).
func resolvePath(src core.Source, p core.Params, rootAddress uint64, path string) (*resolvedObject, error) {
	components := core.SplitPath(path)

	address := rootAddress
	header, err := core.ReadObjectHeader(src, address, p)
	if err != nil {
		return nil, classify(ErrFormat, errors.Wrapf(err, "root object header at %#x", address))
	}

	for _, name := range components {
		next, err := resolveChild(src, p, header, address, name)
		if err != nil {
			return nil, err
		}
		address = next
		header, err = core.ReadObjectHeader(src, address, p)
		if err != nil {
			return nil, classify(ErrFormat, errors.Wrapf(err, "object header at %#x (component %q)", address, name))
		}
	}

	return &resolvedObject{header: header, address: address}, nil
}

// resolveChild finds name among header's children, returning its
// object-header address. header must belong to a group (symbol-table or
// link-info message present).
func resolveChild(src core.Source, p core.Params, header *core.ObjectHeader, address uint64, name string) (uint64, error) {
	if msg, ok := findMessage(header, core.MsgSymbolTable); ok {
		return resolveClassicChild(src, p, msg, name)
	}
	if msg, ok := findMessage(header, core.MsgLinkInfo); ok {
		return resolveNewFormatChild(src, p, header, msg, name)
	}
	return 0, classify(ErrFormat, errors.Errorf("object at %#x is not a group (no symbol-table or link-info message)", address))
}

// childNamesAndAddresses enumerates every child of obj's group, in
// whichever storage form it uses. Used by ListGroup, which (unlike path
// resolution) needs the full set of names rather than a single lookup.
func (h *Handle) childNamesAndAddresses(obj *resolvedObject) ([]string, []uint64, error) {
	if msg, ok := findMessage(obj.header, core.MsgSymbolTable); ok {
		st, err := structures.ParseSymbolTableMessage(msg.Data, h.params)
		if err != nil {
			return nil, nil, classify(ErrFormat, errors.Wrap(err, "symbol table message parse failed"))
		}
		heap, err := structures.LoadLocalHeap(h.cache, st.HeapAddress, h.params)
		if err != nil {
			return nil, nil, classify(ErrFormat, errors.Wrap(err, "local heap load failed"))
		}
		entries, err := structures.ReadGroupEntries(h.cache, st.BTreeAddress, h.params)
		if err != nil {
			return nil, nil, classify(ErrFormat, errors.Wrap(err, "group btree read failed"))
		}

		names := make([]string, 0, len(entries))
		addrs := make([]uint64, 0, len(entries))
		for _, e := range entries {
			if e.IsSoftLink() {
				continue // soft links unsupported; skip rather than fail the whole listing
			}
			name, err := heap.GetString(e.LinkNameOffset)
			if err != nil {
				continue
			}
			names = append(names, name)
			addrs = append(addrs, e.ObjectAddress)
		}
		return names, addrs, nil
	}

	if msg, ok := findMessage(obj.header, core.MsgLinkInfo); ok {
		lim, err := core.ParseLinkInfoMessage(msg.Data, h.params)
		if err != nil {
			return nil, nil, classify(ErrFormat, errors.Wrap(err, "link info message parse failed"))
		}
		var linkMessages []*core.LinkMessage
		if lim.HasFractalHeap() {
			fh, err := structures.OpenFractalHeap(h.cache, lim.FractalHeapAddress, h.params)
			if err != nil {
				return nil, nil, classify(ErrFormat, errors.Wrap(err, "fractal heap open failed"))
			}
			linkMessages, err = fh.ScanLinkMessages(h.params)
			if err != nil {
				return nil, nil, classify(ErrUnsupported, errors.Wrap(err, "dense group link scan failed"))
			}
		} else {
			for _, m := range obj.header.Messages {
				if m.Type != core.MsgLink {
					continue
				}
				lm, err := core.ParseLinkMessage(m.Data, h.params)
				if err != nil {
					return nil, nil, classify(ErrFormat, errors.Wrap(err, "link message parse failed"))
				}
				linkMessages = append(linkMessages, lm)
			}
		}

		var names []string
		var addrs []uint64
		for _, lm := range linkMessages {
			if lm.Type != core.LinkTypeHard {
				continue // soft/external links unsupported; skip rather than fail the whole listing
			}
			names = append(names, lm.Name)
			addrs = append(addrs, lm.TargetAddress())
		}
		return names, addrs, nil
	}

	return nil, nil, classify(ErrFormat, errors.Errorf("object at %#x is not a group", obj.address))
}

func findMessage(header *core.ObjectHeader, t core.MessageType) (core.HeaderMessage, bool) {
	for _, m := range header.Messages {
		if m.Type == t {
			return m, true
		}
	}
	return core.HeaderMessage{}, false
}

func resolveClassicChild(src core.Source, p core.Params, msg core.HeaderMessage, name string) (uint64, error) {
	st, err := structures.ParseSymbolTableMessage(msg.Data, p)
	if err != nil {
		return 0, classify(ErrFormat, errors.Wrap(err, "symbol table message parse failed"))
	}
	heap, err := structures.LoadLocalHeap(src, st.HeapAddress, p)
	if err != nil {
		return 0, classify(ErrFormat, errors.Wrap(err, "local heap load failed"))
	}
	entries, err := structures.ReadGroupEntries(src, st.BTreeAddress, p)
	if err != nil {
		return 0, classify(ErrFormat, errors.Wrap(err, "group btree read failed"))
	}

	for _, e := range entries {
		entryName, err := heap.GetString(e.LinkNameOffset)
		if err != nil {
			continue
		}
		if entryName != name {
			continue
		}
		if e.IsSoftLink() {
			return 0, classify(ErrUnsupported, errors.Errorf("soft link %q is not supported", name))
		}
		return e.ObjectAddress, nil
	}
	return 0, classify(ErrFormat, errors.Errorf("path component %q not found", name))
}

// resolveNewFormatChild resolves one path component in a new-format
// group. Compact link storage reads links straight off the group's own
// 0x06 messages; dense (fractal-heap-indexed) storage sequentially scans
// the fractal heap's direct-block bytes instead of the v2 name-index
// B-tree, per spec §4.6 (fractal heap indirect blocks are not supported,
// see DESIGN.md).
func resolveNewFormatChild(src core.Source, p core.Params, header *core.ObjectHeader, msg core.HeaderMessage, name string) (uint64, error) {
	lim, err := core.ParseLinkInfoMessage(msg.Data, p)
	if err != nil {
		return 0, classify(ErrFormat, errors.Wrap(err, "link info message parse failed"))
	}

	var linkMessages []*core.LinkMessage
	if lim.HasFractalHeap() {
		fh, err := structures.OpenFractalHeap(src, lim.FractalHeapAddress, p)
		if err != nil {
			return 0, classify(ErrFormat, errors.Wrap(err, "fractal heap open failed"))
		}
		linkMessages, err = fh.ScanLinkMessages(p)
		if err != nil {
			return 0, classify(ErrUnsupported, errors.Wrap(err, "dense group link scan failed"))
		}
	} else {
		for _, m := range header.Messages {
			if m.Type != core.MsgLink {
				continue
			}
			lm, err := core.ParseLinkMessage(m.Data, p)
			if err != nil {
				return 0, classify(ErrFormat, errors.Wrap(err, "link message parse failed"))
			}
			linkMessages = append(linkMessages, lm)
		}
	}

	for _, lm := range linkMessages {
		if lm.Name != name {
			continue
		}
		if lm.Type != core.LinkTypeHard {
			return 0, classify(ErrUnsupported, errors.Errorf("soft/external link %q is not supported", name))
		}
		return lm.TargetAddress(), nil
	}
	return 0, classify(ErrFormat, errors.Errorf("path component %q not found", name))
}
