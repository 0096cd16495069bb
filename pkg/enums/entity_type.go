package enums

import "fmt"

// EntityType identifies which marketplace entity owns a media scope.
type EntityType string

const (
	EntityTypeProperty      EntityType = "property"
	EntityTypeUser          EntityType = "user"
	EntityTypeAgency        EntityType = "agency"
	EntityTypeProject       EntityType = "project"
	EntityTypeAdvertisement EntityType = "advertisement"
	EntityTypeDistrict      EntityType = "district"
	EntityTypeDeveloper     EntityType = "developer"
)

var validEntityTypes = []EntityType{
	EntityTypeProperty,
	EntityTypeUser,
	EntityTypeAgency,
	EntityTypeProject,
	EntityTypeAdvertisement,
	EntityTypeDistrict,
	EntityTypeDeveloper,
}

// String returns the literal string for the entity type.
func (e EntityType) String() string {
	return string(e)
}

// IsValid reports whether the entity type is known.
func (e EntityType) IsValid() bool {
	for _, candidate := range validEntityTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEntityType converts raw input into an EntityType.
func ParseEntityType(value string) (EntityType, error) {
	for _, candidate := range validEntityTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid entity type %q", value)
}
