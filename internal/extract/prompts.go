package extract

import "fmt"

func strictPrompt(transcript string, maxClaims int) string {
	return fmt.Sprintf(`You are a fact-checking assistant. Extract the %d most significant verifiable factual claims from this video transcript.

Rules:
- Only extract economic, political, legal, or scientific claims. Ignore personal anecdotes and life-story details.
- Each claim must be a complete, standalone statement that can be checked against public sources.
- Never output sentence fragments or partial thoughts.
- Rephrase claims in clear English even if the transcript is in another language.
- Skip opinions, predictions, and subjective statements.
- Include an approximate timestamp (mm:ss) when the transcript provides timing, otherwise "Unknown".
- For each claim write a short web search query that would find evidence for or against it.

Respond with ONLY this JSON, no other text:
{"topic": "<short topic of the video>", "claims": [{"claim": "<standalone factual statement>", "timestamp": "<mm:ss or Unknown>", "query": "<search query>"}]}

Transcript:
%s`, maxClaims, transcript)
}

func relaxedPrompt(transcript string, maxClaims int) string {
	return fmt.Sprintf(`Extract up to %d factual statements from this video transcript. Be generous: include any statement presented as fact, even casual or implied ones, as long as it could in principle be verified. Do not include pure opinions.

Write every statement as a complete English sentence, never a fragment.

Respond with ONLY this JSON, no other text:
{"topic": "<short topic of the video>", "claims": [{"claim": "<complete factual statement>", "timestamp": "<mm:ss or Unknown>", "query": "<web search query for this claim>"}]}

Transcript:
%s`, maxClaims, transcript)
}
