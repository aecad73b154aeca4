package catalog

import (
	"fmt"

	"romshelf/internal/region"
)

// KnownTitle is a row in the reference catalog. ReleaseNumber is the stable
// identity assigned by the feed; it survives refresh cycles.
type KnownTitle struct {
	ReleaseNumber  int
	Title          string
	Checksum       uint32
	Publisher      string
	ReleaseGroup   string
	Region         int
	NormalizedName string
}

// Describe renders the catalog identity the way it is shown to users.
func (k *KnownTitle) Describe() string {
	return fmt.Sprintf("%4d - %s (%s) [%s]", k.ReleaseNumber, k.Title, region.Name(k.Region), k.ReleaseGroup)
}

// CanonicalFileName is the normalized on-disk name for an identified image.
func (k *KnownTitle) CanonicalFileName() string {
	return fmt.Sprintf("%04d - %s (%s).nds", k.ReleaseNumber, k.Title, region.ShortName(k.Region))
}

// LocalFile is a row in the local index. A nil ReleaseNumber means the file
// was scanned but never identified. Path is unique; for archived entries it
// encodes "archivePath:innerName".
type LocalFile struct {
	ID             int64
	ReleaseNumber  *int
	Path           string
	NormalizedName string
	Size           *int64
	Checksum       *uint32
}

// DuplicateGroup reports how many local files share one checksum.
type DuplicateGroup struct {
	Count    int
	Checksum uint32
}
