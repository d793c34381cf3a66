package dinosaur

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Download names used by the export endpoint.
const (
	JSONFileName = "dinosaur_info.json"
	TextFileName = "dinosaur_info.txt"
)

// JSON renders the result indented by two spaces with non-ASCII and HTML
// characters left as is.
func (i Info) JSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(i); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Text renders the copy-friendly plain text export.
func (i Info) Text() string {
	var b strings.Builder
	b.WriteString("Вид: " + i.SpeciesName + "\n")
	b.WriteString("Цвет фигурки: " + i.ColorDescription + "\n")
	b.WriteString("Период: " + i.GeologicalPeriod + "\n")
	b.WriteString("Интересный факт: " + i.BriefInfo)
	return b.String()
}

// Report renders the framed block printed by the console analyzer.
func (i Info) Report() string {
	sep := strings.Repeat("=", 50)
	var b strings.Builder
	b.WriteString("\n" + sep + "\n")
	b.WriteString("🦕 ИНФОРМАЦИЯ О ДИНОЗАВРЕ 🦕\n")
	b.WriteString(sep + "\n")
	b.WriteString("📛 Вид: " + i.SpeciesName + "\n")
	b.WriteString("🎨 Цвет фигурки: " + i.ColorDescription + "\n")
	b.WriteString("⏰ Период: " + i.GeologicalPeriod + "\n")
	b.WriteString("📚 Интересный факт: " + i.BriefInfo + "\n")
	b.WriteString(sep + "\n")
	return b.String()
}
