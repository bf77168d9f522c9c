package id

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewSessionID returns an id of the form s_<epochMs>_<hex>. The time prefix
// keeps ids roughly sortable by creation.
func NewSessionID(now time.Time) string {
	entropy := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "s_" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + entropy[:13]
}
