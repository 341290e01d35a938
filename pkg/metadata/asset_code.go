package metadata

import "fmt"

// AssetCode is the human-readable code printed on the physical asset label,
// composed from the category prefix and a per-category sequence number.
type AssetCode struct {
	prefix   string
	sequence int
}

func NewAssetCode(prefix string, sequence int) AssetCode {
	return AssetCode{prefix: prefix, sequence: sequence}
}

func (c AssetCode) String() string {
	return fmt.Sprintf("%s%06d", c.prefix, c.sequence)
}
