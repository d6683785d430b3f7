package tenant

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/chatguus/chatguus-backend/internal/domain"
)

// CSS renders the widget stylesheet overrides for t: custom properties on
// :root and tenant-scoped rules for the header, toggle, send button and user
// bubbles.
func CSS(t *domain.Tenant) string {
	b := t.Branding.Data()
	primary := b.PrimaryColor
	secondary := b.SecondaryColor
	if secondary == "" {
		secondary = primary
	}
	scope := ".chatbot-widget.tenant-" + t.ID

	var sb strings.Builder
	fmt.Fprintf(&sb, ":root {\n")
	fmt.Fprintf(&sb, "  --tenant-primary: %s;\n", primary)
	fmt.Fprintf(&sb, "  --tenant-secondary: %s;\n", secondary)
	fmt.Fprintf(&sb, "  --tenant-primary-hover: %s;\n", Darken(primary, 10))
	fmt.Fprintf(&sb, "  --tenant-primary-light: %s;\n", Lighten(primary, 20))
	fmt.Fprintf(&sb, "  --tenant-company: %s;\n", cssString(b.CompanyName))
	fmt.Fprintf(&sb, "  --tenant-bot-name: %s;\n", cssString(b.BotName))
	sb.WriteString("}\n\n")

	fmt.Fprintf(&sb, "%s {\n  --chatguus-primary: %s;\n  --chatguus-secondary: %s;\n}\n\n", scope, primary, secondary)
	fmt.Fprintf(&sb, "%s .chatguus-header {\n  background: linear-gradient(135deg, %s 0%%, %s 100%%);\n}\n\n",
		scope, primary, Darken(primary, 10))
	for _, part := range []string{".chatguus-toggle", ".chatguus-send", ".chatguus-message.user"} {
		fmt.Fprintf(&sb, "%s %s {\n  background: %s;\n}\n\n", scope, part, primary)
	}
	return strings.TrimRight(sb.String(), "\n") + "\n"
}

func cssString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", " ", "<", `\3c `)
	return `"` + r.Replace(s) + `"`
}

// Darken subtracts round(2.55*percent) from each RGB channel of a #rrggbb
// color, clamping at 0. Invalid colors are returned unchanged.
func Darken(color string, percent float64) string {
	return shift(color, -int(math.Round(2.55*percent)))
}

// Lighten adds round(2.55*percent) to each channel, clamping at 255.
func Lighten(color string, percent float64) string {
	return shift(color, int(math.Round(2.55*percent)))
}

func shift(color string, amt int) string {
	hex := strings.TrimPrefix(color, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color
	}
	ch := func(v int) int { return min(255, max(0, v+amt)) }
	r := ch(int(n>>16) & 0xff)
	g := ch(int(n>>8) & 0xff)
	b := ch(int(n) & 0xff)
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}
