package inference

import (
	"fmt"

	"github.com/okian/mimicoo/internal/domain/model"
)

func analysisPrompt(sentence string) string {
	return fmt.Sprintf(`You are a speech analysis expert. The user recorded themselves reading the following sentence: %q.

Analyze the audio and provide a detailed analysis focusing on clarity, pronunciation, fluency, and pacing.

Provide a detailed analysis in the following JSON format (respond ONLY with valid JSON, no other text or markdown fences):
{
  "score": <number 0-100>,
  "feedback": ["point 1", "point 2", "point 3"],
  "strengths": ["strength 1", "strength 2"],
  "improvements": ["improvement 1", "improvement 2"],
  "clarity": <number 0-100>,
  "pronunciation": <number 0-100>,
  "fluency": <number 0-100>
}

Be encouraging but honest. Base your analysis on the provided audio file.`, sentence)
}

func riskPrompt(uploaded, reference model.Summary) string {
	return fmt.Sprintf(`You are a pediatric speech-language pathology assistant analyzing baby babble audio data.

Base audio (normal reference) metrics:
- Average Pitch: %.2f Hz
- Pitch Variability: %.4f
- Average Energy: %.4f
- Voicing Ratio: %.4f
- Duration: %.2fs

Uploaded baby audio metrics:
- Average Pitch: %.2f Hz
- Pitch Variability: %.4f
- Average Energy: %.4f
- Voicing Ratio: %.4f
- Duration: %.2fs

Based on these acoustic features, respond ONLY with valid JSON in this format:
{
  "risk_assessment": [
    {"condition": "Autism Spectrum Disorder (ASD)", "risk_percentage": <number 0-100>, "reasoning": "<brief explanation>"},
    {"condition": "Developmental Language Disorder (DLD)", "risk_percentage": <number 0-100>, "reasoning": "<brief explanation>"},
    {"condition": "Hearing Impairment", "risk_percentage": <number 0-100>, "reasoning": "<brief explanation>"}
  ],
  "overall_status": "<Normal Development|Monitor Closely|Consult Specialist>",
  "next_steps": ["<recommendation 1>", "<recommendation 2>", "<recommendation 3>"],
  "key_findings": "<brief summary of analysis>"
}

Consider:
- Lower voicing ratio may indicate less vocal engagement
- Abnormal pitch patterns may signal developmental concerns
- Energy patterns reflect vocal strength and consistency
- Compare deviations from baseline to assess risk levels`,
		reference.AvgPitch, reference.PitchVariability, reference.AvgEnergy, reference.VoicingRatio, reference.DurationSeconds,
		uploaded.AvgPitch, uploaded.PitchVariability, uploaded.AvgEnergy, uploaded.VoicingRatio, uploaded.DurationSeconds)
}
