package assistant

import (
	"fmt"

	"github.com/MrWong99/aura/pkg/types"
)

// DefaultExitPhrases end the session when any of them occurs in the input.
var DefaultExitPhrases = []string{"exit", "quit", "stop", "goodbye", "bye bye", "band karo", "bas karo", "alvida"}

// DescribePhrases route an utterance to the image description flow before
// intent classification.
var DescribePhrases = []string{"describe image", "analyze image", "image description"}

// Greetings are printed at start-up; one is picked at random.
var Greetings = []string{
	"Hello! How can I assist you today?",
	"Hi there! What can I do for you?",
	"Greetings! Ready for your requests.",
	"Hello! What's on your mind?",
	"Good to see you! How can I help?",
}

// Fixed utterances.
const (
	msgFarewell = "Goodbye! Have a great day."

	msgNoSpeech       = "Sorry, I didn't hear anything."
	msgUnrecognized   = "Sorry, I didn't quite catch that."
	msgSTTUnavailable = "Sorry, my speech service is currently unavailable."
	msgListenFailed   = "Sorry, an error occurred while trying to listen."

	msgModelError   = "Sorry, I encountered an error trying to process that request."
	msgNoResponse   = "Sorry, I couldn't generate a response."
	msgUnknownTask  = "Sorry, I'm not sure how to handle that specific request."
	msgNothingSaved = "There doesn't seem to be a recent response for me to save."

	msgSaveEmpty     = "There doesn't seem to be anything to save."
	msgSaveWhere     = "Okay, where would you like to save the PDF?"
	msgSaved         = "I've saved the draft as a PDF."
	msgSaveCancelled = "Okay, I didn't save the draft."
	msgSaveFailed    = "Sorry, I encountered an error while trying to save the PDF."
	msgSaveMissing   = "Sorry, I'm missing some tools needed to save PDFs."

	msgGenerating      = "Generating image, please wait..."
	msgGenerateFailed  = "Failed to generate the image."
	msgGenerateEmpty   = "Sorry, I couldn't generate the image."
	msgGenerateError   = "Sorry, I encountered an error during image generation."
	msgGenerateSuccess = "Here’s the image I created based on your prompt."

	msgUploadFailed   = "Failed to upload the image for analysis."
	msgUploadMissing  = "Image upload is not configured. Analyzing locally."
	msgNoImage        = "No image was selected."
	msgAnalyzeFailed  = "Sorry, I couldn't analyze the image."
	msgAnalyzeMissing = "Sorry, image analysis is not configured."

	msgHistorySaved      = "Chat history saved."
	msgHistoryLoaded     = "Chat history loaded."
	msgHistorySaveFailed = "Error saving chat history."
	msgHistoryLoadFailed = "Error loading chat history."
)

// SuggestedPDFName is offered as the default file name when saving.
const SuggestedPDFName = "aura_draft.pdf"

// SystemPrompt returns the system message for a chat completion answered in
// lang by the assistant called name.
func SystemPrompt(name string, lang types.Language) string {
	language := lang.Name()
	return fmt.Sprintf(`You are %[1]s, a helpful, friendly, and concise AI assistant.
Respond clearly and naturally in %[2]s.
Keep the following conversation history in mind to provide relevant responses.
If asked to perform an action you cannot do, politely explain the limitation in the appropriate language (%[2]s).
You can save pdf from the text generated summary.
You can generate images as well as analyze them.
If appropriate, you can include a natural follow-up question to encourage conversation, but don't force it.
Do not write two different responses at same time, if possible include both responses in one message.
If user asks you to analyze images, then accept images directly by opening a dialog box to select image.
If no follow-up is needed, just provide the response:
Response: <your main response in the correct language/script>
If a follow-up question is appropriate, add it on its own line after the response:
Follow-up: <your follow-up question>
`, name, language)
}
