package exd

import (
	"fmt"
	"strconv"
	"strings"
)

// ListPath is the archive path of the sheet listing.
const ListPath = "exd/root.exl"

// HeaderPath returns the archive path of a sheet header.
func HeaderPath(sheet string) string {
	return "exd/" + sheet + ".exh"
}

// PagePath returns the archive path of one page of a sheet variant.
func PagePath(sheet string, startID uint32, lang Language) string {
	return fmt.Sprintf("exd/%s_%d%s.exd", sheet, startID, lang.Suffix())
}

// SheetFromPath returns the sheet a header or page path belongs to. It is the
// inverse of HeaderPath and PagePath.
func SheetFromPath(path string) (string, bool) {
	rest, ok := strings.CutPrefix(path, "exd/")
	if !ok {
		return "", false
	}
	if name, ok := strings.CutSuffix(rest, ".exh"); ok {
		return name, name != ""
	}
	base, ok := strings.CutSuffix(rest, ".exd")
	if !ok {
		return "", false
	}
	for l := LanguageJapanese; l.Valid(); l++ {
		if b, ok := strings.CutSuffix(base, l.Suffix()); ok {
			base = b
			break
		}
	}
	i := strings.LastIndexByte(base, '_')
	if i <= 0 {
		return "", false
	}
	if _, err := strconv.ParseUint(base[i+1:], 10, 32); err != nil {
		return "", false
	}
	return base[:i], true
}
