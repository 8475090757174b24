package generation

import (
	"fmt"
	"strings"

	"artisan-workers/internal/models"
)

// Prompt construction is shared by the model-backed providers and must be
// deterministic for the same product, tone and variant inputs.

func materialsLine(p *models.Product) string {
	mats := strings.Join(p.Materials, ", ")
	if mats == "" {
		return "unspecified"
	}
	return mats
}

func regionLine(p *models.Product) string {
	if p.Region == "" {
		return "unspecified"
	}
	return p.Region
}

func titleLine(p *models.Product) string {
	if p.Title == "" {
		return "Untitled"
	}
	return p.Title
}

// BuildStoryPrompt asks for a short Markdown product story.
func BuildStoryPrompt(p *models.Product, tone, lang string) string {
	return fmt.Sprintf(
		"You help artisans describe their handmade products.\n"+
			"Write a **%s** product story in language code '%s'. "+
			"Output in Markdown, about 150 words. Be specific and warm. "+
			"Include a short title as the first Markdown heading (# Title).\n\n"+
			"- Title: %s\n"+
			"- Materials: %s\n"+
			"- Region: %s\n"+
			"- Avoid making up facts. Keep it respectful and authentic.",
		strings.ToLower(tone), lang, titleLine(p), materialsLine(p), regionLine(p),
	)
}

// BuildCaptionPrompt asks for a channel-scoped social post.
func BuildCaptionPrompt(p *models.Product, lang, channel string) string {
	return fmt.Sprintf(
		"Write a concise social post for %s. Language '%s'. "+
			"Handcrafted item titled '%s'. "+
			"Materials: %s. "+
			"Region: %s. "+
			"Provide: caption (at most 120 words), 6-10 hashtags, and a clear CTA.",
		channel, lang, titleLine(p), materialsLine(p), regionLine(p),
	)
}

// promptFor picks the prompt matching the task shape: channel-scoped
// tasks get a caption, language-only tasks get a story.
func promptFor(task *models.GenerationTask) string {
	if task.Channel != "" {
		return BuildCaptionPrompt(task.Product, task.Lang, task.Channel)
	}
	return BuildStoryPrompt(task.Product, task.Tone, task.Lang)
}
