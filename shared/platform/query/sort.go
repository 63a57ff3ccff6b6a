package query

import "strings"

// BuildSortSpec empareja por posición la lista de campos con la lista de
// direcciones ("true" = descendente, sin distinguir mayúsculas). Si faltan
// direcciones, el resto de campos es ascendente.
func BuildSortSpec(sortBy, sortDesc string) SortSpec {
	if strings.TrimSpace(sortBy) == "" {
		return SortSpec{}
	}

	fields := strings.Split(sortBy, ",")
	var flags []string
	if sortDesc != "" {
		flags = strings.Split(sortDesc, ",")
	}

	spec := make(SortSpec, 0, len(fields))
	for i, field := range fields {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		desc := false
		if i < len(flags) {
			desc = strings.EqualFold(strings.TrimSpace(flags[i]), "true")
		}
		spec = append(spec, Sort{Field: field, Desc: desc})
	}
	return spec
}
