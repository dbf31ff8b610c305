package enums

// MetadataSource marks how a remote gift record came to exist, so operators
// can tell organically-created records from ones a sync pass repaired.
type MetadataSource string

const (
	MetadataSourceOracle            MetadataSource = "oracle"
	MetadataSourceRestoredFromLocal MetadataSource = "restored_from_local"
)

// String implements fmt.Stringer.
func (m MetadataSource) String() string {
	return string(m)
}
