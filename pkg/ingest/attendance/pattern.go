package attendance

import (
	"fmt"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"

	aterrors "github.com/otherjamesbrown/attend-cli/pkg/errors"
)

// DefaultDatetimePattern matches timestamps such as "03/21/24, 02:15:07 PM".
const DefaultDatetimePattern = "%m/%d/%y, %I:%M:%S %p"

// TimeLayout converts a datetime pattern into a Go time layout.
// Patterns containing '%' are strftime patterns; anything else is taken as a
// Go reference layout unchanged.
func TimeLayout(pattern string) (string, error) {
	if pattern == "" {
		return "", fmt.Errorf("%w: empty datetime pattern", aterrors.ErrInvalidConfig)
	}
	if !strings.Contains(pattern, "%") {
		return pattern, nil
	}
	layout, err := strftime.Layout(pattern)
	if err != nil {
		return "", fmt.Errorf("%w: datetime pattern %q: %v", aterrors.ErrInvalidConfig, pattern, err)
	}
	return layout, nil
}

// ParseTime parses value with a pattern accepted by TimeLayout.
func ParseTime(pattern, value string) (time.Time, error) {
	layout, err := TimeLayout(pattern)
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(layout, strings.TrimSpace(value))
}
