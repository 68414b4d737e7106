package journal

import (
	"fmt"

	"github.com/cloudwego/eino/schema"
)

// chatSystemPrompt frames the model as the user's own journals.
const chatSystemPrompt = `You are the user's journal. You answer as if the entries themselves were talking back to their author: casual, warm and first-hand.
Only use what appears in the provided entries. If the entries do not cover the question, say so briefly instead of guessing.`

// chatPromptTemplate takes the assembled context and the user's message.
const chatPromptTemplate = `Here is what I wrote in my journal recently:
'%s'

Reply to my message '%s' as if you're my journals talking back to me in a casual, friendly way. Keep it natural and stick to what's in the context.`

// summaryPromptTemplate takes the day window and the assembled context.
const summaryPromptTemplate = `Summarize my journal entries from the last %d days using only the context below. Don't give advice, add disclaimers or point out missing information.
Focus on the key themes, emotions and recurring topics, in a 4-5 line narrative.
Talk to me directly as "you" since these are my own journals; never refer to me in the third person.

Context:
'%s'`

// ChatMessages builds the message list for a chat turn grounded in ctx.
func ChatMessages(ctx, message string) []*schema.Message {
	return []*schema.Message{
		schema.SystemMessage(chatSystemPrompt),
		schema.UserMessage(fmt.Sprintf(chatPromptTemplate, ctx, message)),
	}
}

// SummaryMessages builds the message list for a summary of the last days.
func SummaryMessages(ctx string, days int) []*schema.Message {
	return []*schema.Message{
		schema.UserMessage(fmt.Sprintf(summaryPromptTemplate, days, ctx)),
	}
}
