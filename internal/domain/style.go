package domain

import "time"

// StyleType names a preset style template.
type StyleType string

// Preset style types.
const (
	StyleGhibli   StyleType = "ghibli"
	StyleDisney   StyleType = "disney"
	StyleMemphis  StyleType = "memphis"
	StyleGraffiti StyleType = "graffiti"
	StyleCustom   StyleType = "custom"
)

// MaxStylePromptLength bounds style prompts in characters.
const MaxStylePromptLength = 1000

// Style is the project's visual style. Image is the public path of the reference image.
type Style struct {
	Prompt    string    `yaml:"prompt"`
	Image     string    `yaml:"image"`
	CreatedAt time.Time `yaml:"created_at"`
	StyleType StyleType `yaml:"style_type,omitempty"`
	StyleName string    `yaml:"style_name,omitempty"`
}

// StyleCandidate is a generated style image awaiting selection. It lives only on disk.
type StyleCandidate struct {
	ID   string
	Path string
}

// StyleTemplate is a preset that resolves to a style prompt.
type StyleTemplate struct {
	Type          StyleType `json:"type"`
	Name          string    `json:"name"`
	NameEN        string    `json:"name_en"`
	Description   string    `json:"description"`
	PreviewPrompt string    `json:"preview_prompt"`
}

var styleTemplates = []StyleTemplate{
	{
		Type:          StyleGhibli,
		Name:          "吉卜力",
		NameEN:        "Ghibli",
		Description:   "Soft hand-painted watercolor scenery with warm light and gentle pastoral detail.",
		PreviewPrompt: "Studio Ghibli inspired hand-painted background, soft watercolor textures, warm afternoon light, lush green hills and drifting clouds, gentle pastel palette, calm and nostalgic mood",
	},
	{
		Type:          StyleDisney,
		Name:          "迪士尼",
		NameEN:        "Disney",
		Description:   "Bright storybook animation look with rounded shapes and saturated color.",
		PreviewPrompt: "Classic Disney animation style background, vibrant saturated colors, rounded friendly shapes, magical sparkles, storybook lighting, cheerful and polished",
	},
	{
		Type:          StyleMemphis,
		Name:          "孟菲斯",
		NameEN:        "Memphis",
		Description:   "1980s Memphis design: bold geometry, squiggles and clashing flat colors.",
		PreviewPrompt: "Memphis design style background, bold geometric shapes, zigzags and squiggles, terrazzo dots, flat pastel and neon colors, playful 1980s postmodern pattern",
	},
	{
		Type:          StyleGraffiti,
		Name:          "涂鸦",
		NameEN:        "Graffiti",
		Description:   "Urban street-art wall with spray paint texture and high energy.",
		PreviewPrompt: "Urban graffiti street art background, spray paint texture on brick wall, drips and tags, vivid neon colors, energetic hip-hop atmosphere",
	},
	{
		Type:          StyleCustom,
		Name:          "自定义",
		NameEN:        "Custom",
		Description:   "Describe your own style.",
		PreviewPrompt: "",
	},
}

// StyleTemplates returns the preset templates in display order.
func StyleTemplates() []StyleTemplate {
	out := make([]StyleTemplate, len(styleTemplates))
	copy(out, styleTemplates)
	return out
}

// LookupStyleTemplate returns the template for t.
func LookupStyleTemplate(t StyleType) (StyleTemplate, bool) {
	for _, tpl := range styleTemplates {
		if tpl.Type == t {
			return tpl, true
		}
	}
	return StyleTemplate{}, false
}

// ParseStyleType maps s to a known type; anything unrecognized becomes StyleCustom.
func ParseStyleType(s string) StyleType {
	if _, ok := LookupStyleTemplate(StyleType(s)); ok {
		return StyleType(s)
	}
	return StyleCustom
}
