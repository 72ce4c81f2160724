package asana

import "math"

// FieldKind describes how a custom field value is read.
type FieldKind int

const (
	FieldText FieldKind = iota
	FieldNumber
	FieldEnum
	FieldMultiEnum
)

func (k FieldKind) String() string {
	switch k {
	case FieldText:
		return "text"
	case FieldNumber:
		return "number"
	case FieldEnum:
		return "enum"
	case FieldMultiEnum:
		return "multi_enum"
	default:
		return "unknown"
	}
}

// FieldSpec binds a custom field GID to the kind of value it carries.
type FieldSpec struct {
	GID  string
	Kind FieldKind
}

// FieldValue is the value of one custom field. Only the member matching Kind is set.
type FieldValue struct {
	Kind   FieldKind
	Text   *string
	Number *float64
	Labels []string
}

// FieldMapping maps the custom fields that carry university attributes.
// An empty GID means the attribute is not tracked and takes its default.
type FieldMapping struct {
	Researchers    FieldSpec
	Students       FieldSpec
	HardwareTypes  FieldSpec
	PointOfContact FieldSpec
}

// NewFieldMapping builds the mapping from the four configured field GIDs.
func NewFieldMapping(researchersGID, studentsGID, hardwareGID, contactGID string) FieldMapping {
	return FieldMapping{
		Researchers:    FieldSpec{GID: researchersGID, Kind: FieldNumber},
		Students:       FieldSpec{GID: studentsGID, Kind: FieldNumber},
		HardwareTypes:  FieldSpec{GID: hardwareGID, Kind: FieldMultiEnum},
		PointOfContact: FieldSpec{GID: contactGID, Kind: FieldText},
	}
}

// indexFields keys a task's custom fields by GID.
func indexFields(fields []CustomField) map[string]CustomField {
	byGID := make(map[string]CustomField, len(fields))
	for _, f := range fields {
		if f.GID != "" {
			byGID[f.GID] = f
		}
	}
	return byGID
}

// Extract reads the value described by spec from fields. ok is false when the
// field is absent or holds no value.
func Extract(fields map[string]CustomField, spec FieldSpec) (FieldValue, bool) {
	value := FieldValue{Kind: spec.Kind}
	if spec.GID == "" {
		return value, false
	}
	field, found := fields[spec.GID]
	if !found {
		return value, false
	}

	switch spec.Kind {
	case FieldNumber:
		if field.NumberValue == nil {
			return value, false
		}
		value.Number = field.NumberValue
	case FieldMultiEnum:
		labels := make([]string, 0, len(field.MultiEnumValues))
		for _, option := range field.MultiEnumValues {
			if option.Name != "" {
				labels = append(labels, option.Name)
			}
		}
		value.Labels = labels
	case FieldEnum:
		if field.EnumValue == nil || field.EnumValue.Name == "" {
			return value, false
		}
		name := field.EnumValue.Name
		value.Text = &name
	case FieldText:
		if field.TextValue == nil {
			return value, false
		}
		value.Text = field.TextValue
	}
	return value, true
}

// Int returns the number value truncated to an int, or 0 when unset.
func (v FieldValue) Int() int {
	if v.Number == nil || math.IsNaN(*v.Number) {
		return 0
	}
	return int(*v.Number)
}
