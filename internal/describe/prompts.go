package describe

// Description generation prompts
const (
	descriptionSystemPrompt = `You are a copywriter for e-commerce promotional cards.

Your writing style:
- Tone: %s
- Punchy, concrete, benefit-first
- No clickbait, no fake scarcity

Guidelines:
- Maximum %d characters
- Do NOT restate sales or rating figures; they appear elsewhere on the card
- %s
- %s
- %s
- Respond with the description text only, no preamble and no quotes`

	descriptionUserPrompt = `Write a short promotional description for this product.

Product: %s
Price: %s
Shop: %s
Free shipping: %t`
)

const (
	emojiInstructionOn  = "Use one or two fitting emojis"
	emojiInstructionOff = "Do not use emojis"

	hashtagInstructionOn  = "End with two or three short hashtags"
	hashtagInstructionOff = "Do not add hashtags"

	urgencyInstructionOn  = "Convey that this price will not last, without inventing stock numbers"
	urgencyInstructionOff = "Do not pressure the reader; keep the tone relaxed"
)
