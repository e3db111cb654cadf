package platform

import (
	"fmt"

	"github.com/juju/errors"

	"github.com/tordrt/ddlgen/internal/alteration"
)

// UnsupportedChangeError reports a change the active dialect cannot express.
// Statements emitted before the failure are not retracted.
type UnsupportedChangeError struct {
	Dialect string
	Table   string
	Change  alteration.Change
	Reason  string
}

// Error implements the error interface.
func (e *UnsupportedChangeError) Error() string {
	return fmt.Sprintf("%s cannot apply %q to table %s: %s", e.Dialect, e.Change, e.Table, e.Reason)
}

// Unwrap lets errors.Is(err, errors.NotSupported) match.
func (e *UnsupportedChangeError) Unwrap() error {
	return errors.NotSupported
}

func (b *Builder) unsupported(change alteration.Change, format string, args ...any) error {
	return &UnsupportedChangeError{
		Dialect: b.info.Name,
		Table:   change.TableName(),
		Change:  change,
		Reason:  fmt.Sprintf(format, args...),
	}
}
