package zoho

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/lineuphq/lineup/models"
)

// MappedFields is the projection of one remote record onto local candidate
// attributes. An empty field means the remote record had nothing usable.
type MappedFields struct {
	Name      string
	Email     string
	Phone     string
	RoleTitle string
}

// Mapper resolves and applies per-tenant, per-module field mappings.
type Mapper struct {
	mappings models.FieldMappingRepository
}

func NewMapper(mappings models.FieldMappingRepository) *Mapper {
	return &Mapper{mappings: mappings}
}

// SaveMapping stores the mapping for one module without touching any other
// module's mapping.
func (m *Mapper) SaveMapping(ctx context.Context, tenantID, module string, mapping map[string]string) error {
	return m.mappings.Save(ctx, tenantID, Provider, module, mapping)
}

// Mapping returns the configured mapping for a module, or nil when the
// tenant has not configured one.
func (m *Mapper) Mapping(ctx context.Context, tenantID, module string) (map[string]string, error) {
	return m.mappings.Get(ctx, tenantID, Provider, module)
}

// ApplyMapping projects a remote record onto candidate fields. With no
// configured mapping it falls back to the built-in default; otherwise
// remote field names map onto local names verbatim and everything not in
// the mapping is dropped.
func ApplyMapping(record Record, mapping map[string]string) MappedFields {
	if len(mapping) == 0 {
		return defaultMapping(record)
	}

	var out MappedFields

	for remote, local := range mapping {
		value := stringField(record, remote)
		if value == "" {
			continue
		}

		switch local {
		case "name":
			out.Name = value
		case "email":
			out.Email = value
		case "phone":
			out.Phone = value
		case "roleTitle", "role_title":
			out.RoleTitle = value
		}
	}

	return out
}

func defaultMapping(record Record) MappedFields {
	name := stringField(record, "Full_Name")
	if name == "" {
		name = strings.TrimSpace(stringField(record, "First_Name") + " " + stringField(record, "Last_Name"))
	}

	phone := stringField(record, "Phone")
	if phone == "" {
		phone = stringField(record, "Mobile")
	}

	role := stringField(record, "Designation")
	if role == "" {
		role = stringField(record, "Title")
	}

	return MappedFields{
		Name:      name,
		Email:     stringField(record, "Email"),
		Phone:     phone,
		RoleTitle: role,
	}
}

func stringField(record Record, key string) string {
	v, ok := record[key]
	if !ok || v == nil {
		return ""
	}

	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		// JSON numbers decode as float64; phone-like values must not come
		// out in scientific notation.
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
