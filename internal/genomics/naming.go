package genomics

import (
	"fmt"
	"strings"
)

// Reference naming styles accepted by ReferenceName.
const (
	StyleUCSC    = "UCSC"
	StyleNCBI    = "NCBI"
	StyleEnsembl = "Ensembl"
	StyleDBSNP   = "dbSNP"
)

// styles maps a naming style to the chromosome prefix it uses and its
// spelling of the mitochondrial contig.
var styles = map[string]struct {
	prefix string
	mito   string
}{
	StyleUCSC:    {"chr", "chrM"},
	StyleNCBI:    {"", "MT"},
	StyleEnsembl: {"", "MT"},
	StyleDBSNP:   {"ch", "chMT"},
}

// CheckStyle returns an error if style is not a recognized reference
// naming style.
func CheckStyle(style string) error {
	if _, ok := styles[style]; !ok {
		return fmt.Errorf("unknown reference naming style %q", style)
	}
	return nil
}

// ReferenceName re-spells a reference sequence name according to the
// requested naming style, e.g. "22" becomes "chr22" under the UCSC
// style.  The rewrite is a pure relabeling: it never changes which
// sequence the name denotes.
func ReferenceName(name, style string) (string, error) {
	st, ok := styles[style]
	if !ok {
		return "", fmt.Errorf("unknown reference naming style %q", style)
	}

	base := name
	if strings.HasPrefix(name, "chr") {
		base = name[len("chr"):]
	} else if strings.HasPrefix(name, "ch") {
		base = name[len("ch"):]
	}
	if base == "M" || base == "MT" {
		return st.mito, nil
	}
	return st.prefix + base, nil
}
