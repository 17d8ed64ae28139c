package generation

import "fmt"

const stylePromptTemplate = `Generate a presentation slide background image with the following style:
%s

Requirements:
- Create a visually appealing, clean background suitable for slides
- Keep the design minimal and professional
- Leave space for text overlay
- Use consistent color palette
- 16:9 aspect ratio`

const slidePromptTemplate = `Generate a presentation slide image with the following content and style.

CONTENT:
%s

STYLE REQUIREMENTS:
%s

INSTRUCTIONS:
- Match the visual style of the reference image exactly
- Include the content text in a readable, well-positioned manner
- Maintain 16:9 aspect ratio
- Keep the design clean and professional
- Ensure good contrast between text and background`

// Used by providers that cannot take the reference image, so the style has to
// come across through the description alone.
const describedSlidePromptTemplate = `Generate a presentation slide image with the following content and style.

CONTENT:
%s

STYLE REQUIREMENTS:
%s

INSTRUCTIONS:
- Follow the style description exactly
- Include the content text in a readable, well-positioned manner
- Maintain 16:9 aspect ratio
- Keep the design clean and professional
- Ensure good contrast between text and background
- Match the visual aesthetics described in the style requirements`

// StylePrompt builds the prompt for a style background.
func StylePrompt(style string) string {
	return fmt.Sprintf(stylePromptTemplate, style)
}

// SlidePrompt builds the prompt for a slide rendered against a reference image.
func SlidePrompt(content, stylePrompt string) string {
	return fmt.Sprintf(slidePromptTemplate, content, stylePrompt)
}

// DescribedSlidePrompt builds the prompt for a slide without a reference image.
func DescribedSlidePrompt(content, stylePrompt string) string {
	return fmt.Sprintf(describedSlidePromptTemplate, content, stylePrompt)
}
