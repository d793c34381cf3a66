package dinosaur

// Info is the structured description of one figurine photo. It is built per
// request and never stored.
type Info struct {
	SpeciesName      string `json:"species_name"`
	ColorDescription string `json:"color_description"`
	GeologicalPeriod string `json:"geological_period"`
	BriefInfo        string `json:"brief_info"`
}

// JSON keys of Info.
const (
	FieldSpeciesName      = "species_name"
	FieldColorDescription = "color_description"
	FieldGeologicalPeriod = "geological_period"
	FieldBriefInfo        = "brief_info"
)

// FieldSpec describes one required field: its key, the label shown to users
// and the description handed to the model as part of the response schema.
type FieldSpec struct {
	Name        string
	Label       string
	Description string
}

// Fields lists the required fields in display order.
var Fields = []FieldSpec{
	{
		Name:        FieldSpeciesName,
		Label:       "Вид динозавра",
		Description: "Научное или общепринятое название вида динозавра",
	},
	{
		Name:        FieldColorDescription,
		Label:       "Цвет фигурки",
		Description: "Описание основных цветов фигурки динозавра",
	},
	{
		Name:        FieldGeologicalPeriod,
		Label:       "Геологический период",
		Description: "Геологический период, в котором обитал этот вид динозавра (например, Юрский, Меловой)",
	},
	{
		Name:        FieldBriefInfo,
		Label:       "Интересный факт",
		Description: "Краткая интересная информация о динозавре (1-2 предложения)",
	},
}

// Value returns the field with the given JSON key.
func (i Info) Value(name string) string {
	switch name {
	case FieldSpeciesName:
		return i.SpeciesName
	case FieldColorDescription:
		return i.ColorDescription
	case FieldGeologicalPeriod:
		return i.GeologicalPeriod
	case FieldBriefInfo:
		return i.BriefInfo
	default:
		return ""
	}
}

func (i *Info) set(name, value string) {
	switch name {
	case FieldSpeciesName:
		i.SpeciesName = value
	case FieldColorDescription:
		i.ColorDescription = value
	case FieldGeologicalPeriod:
		i.GeologicalPeriod = value
	case FieldBriefInfo:
		i.BriefInfo = value
	}
}
