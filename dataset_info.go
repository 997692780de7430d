package h5cloud

import (
	"github.com/pkg/errors"

	"github.com/scigolib/h5cloud/internal/core"
)

// datasetInfo is the decoded metadata needed to read or describe a
// dataset, gathered from its object header's messages.
type datasetInfo struct {
	dataspace *core.DataspaceMessage
	datatype  *core.DatatypeMessage
	layout    *core.DataLayoutMessage
	filters   *core.FilterPipelineMessage
	fillValue []byte
	attrs     []core.Attribute
}

// extractDatasetInfo gathers dataspace, datatype, layout, filter-pipeline,
// fill-value and (compact) attribute messages from obj's object header.
func extractDatasetInfo(obj *resolvedObject, p core.Params) (*datasetInfo, error) {
	info := &datasetInfo{}

	for _, m := range obj.header.Messages {
		switch m.Type {
		case core.MsgDataspace:
			ds, err := core.ParseDataspaceMessage(m.Data)
			if err != nil {
				return nil, classify(ErrFormat, errors.Wrap(err, "dataspace message parse failed"))
			}
			info.dataspace = ds

		case core.MsgDatatype:
			dt, err := core.ParseDatatypeMessage(m.Data)
			if err != nil {
				return nil, classify(ErrFormat, errors.Wrap(err, "datatype message parse failed"))
			}
			info.datatype = dt

		case core.MsgDataLayout:
			layout, err := core.ParseDataLayoutMessage(m.Data, p)
			if err != nil {
				return nil, classify(ErrFormat, errors.Wrap(err, "data layout message parse failed"))
			}
			info.layout = layout

		case core.MsgFilterPipeline:
			fp, err := core.ParseFilterPipelineMessage(m.Data)
			if err != nil {
				return nil, classify(ErrFormat, errors.Wrap(err, "filter pipeline message parse failed"))
			}
			info.filters = fp

		case core.MsgFillValue:
			fv, err := core.ParseFillValueMessage(m.Data)
			if err != nil {
				return nil, classify(ErrFormat, errors.Wrap(err, "fill value message parse failed"))
			}
			if fv.Defined {
				info.fillValue = fv.Value
			}

		case core.MsgAttribute:
			attr, err := core.ParseAttributeMessage(m.Data)
			if err != nil {
				return nil, classify(ErrFormat, errors.Wrap(err, "attribute message parse failed"))
			}
			info.attrs = append(info.attrs, *attr)
		}
	}

	return info, nil
}

func classifyDatatype(dt *core.DatatypeMessage) Datatype {
	switch {
	case dt == nil:
		return DatatypeUnknown
	case dt.IsString():
		return DatatypeString
	case dt.IsFloat64():
		return DatatypeFloat64
	case dt.IsFloat32():
		return DatatypeFloat32
	case dt.Class == core.DatatypeFixed:
		switch dt.Size {
		case 1:
			if dt.IsSignedInt() {
				return DatatypeInt8
			}
			return DatatypeUint8
		case 2:
			if dt.IsSignedInt() {
				return DatatypeInt16
			}
			return DatatypeUint16
		case 4:
			if dt.IsSignedInt() {
				return DatatypeInt32
			}
			return DatatypeUint32
		case 8:
			if dt.IsSignedInt() {
				return DatatypeInt64
			}
			return DatatypeUint64
		}
	}
	return DatatypeUnknown
}
