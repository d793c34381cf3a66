package web

import (
	"strings"

	"dino-analyzer/internal/analyzer"
	"dino-analyzer/internal/dinosaur"
	"dino-analyzer/internal/imageprep"
)

var supportedFormats = []string{"PNG", "JPG", "JPEG"}

var fieldIcons = map[string]string{
	dinosaur.FieldSpeciesName:      "📛",
	dinosaur.FieldColorDescription: "🎨",
	dinosaur.FieldGeologicalPeriod: "⏰",
	dinosaur.FieldBriefInfo:        "📚",
}

type pageData struct {
	Model        string
	HasServerKey bool
	Formats      []string
	Accept       string
	MaxUpload    string
	Result       *resultView
	Error        *errorView
}

type resultView struct {
	FileName string
	Size     string
	Width    int
	Height   int
	Fields   []fieldView
	Text     string
	JSON     string
}

type fieldView struct {
	Name  string
	Label string
	Icon  string
	Value string
}

type errorView struct {
	Code    string
	Message string
	Hint    string
}

// newResultView renders all four fields or nothing.
func newResultView(fileName string, out analyzer.Outcome) (*resultView, error) {
	data, err := out.Info.JSON()
	if err != nil {
		return nil, err
	}
	fields := make([]fieldView, 0, len(dinosaur.Fields))
	for _, f := range dinosaur.Fields {
		fields = append(fields, fieldView{
			Name:  f.Name,
			Label: f.Label,
			Icon:  fieldIcons[f.Name],
			Value: out.Info.Value(f.Name),
		})
	}
	return &resultView{
		FileName: fileName,
		Size:     out.Image.Size(),
		Width:    out.Image.Width,
		Height:   out.Image.Height,
		Fields:   fields,
		Text:     out.Info.Text(),
		JSON:     string(data),
	}, nil
}

func acceptAttr() string {
	exts := make([]string, 0, len(supportedFormats)+2)
	for _, f := range supportedFormats {
		exts = append(exts, "."+strings.ToLower(f))
	}
	exts = append(exts, "image/png", "image/jpeg")
	return strings.Join(exts, ",")
}

type imageView struct {
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Format    string `json:"format"`
	SizeBytes int64  `json:"sizeBytes"`
	Size      string `json:"size"`
}

type analysisResponse struct {
	Result dinosaur.Info `json:"result"`
	Image  imageView     `json:"image"`
}

func toAnalysisResponse(out analyzer.Outcome) analysisResponse {
	return analysisResponse{
		Result: out.Info,
		Image:  toImageView(out.Image),
	}
}

func toImageView(m imageprep.Meta) imageView {
	return imageView{
		Width:     m.Width,
		Height:    m.Height,
		Format:    m.Format,
		SizeBytes: m.SizeBytes,
		Size:      m.Size(),
	}
}
