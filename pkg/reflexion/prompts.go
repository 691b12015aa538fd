package reflexion

import (
	"fmt"
	"strings"
)

func buildAnswerPrompt(task string, prior []Attempt) string {
	var sb strings.Builder

	if len(prior) == 0 {
		sb.WriteString("Answer the following task as accurately and completely as you can.\n\n")
		sb.WriteString("Task:\n")
		sb.WriteString(task)
		sb.WriteString("\n")
		return sb.String()
	}

	sb.WriteString("Your previous answers to this task were reviewed and need improvement.\n\n")
	sb.WriteString("Task:\n")
	sb.WriteString(task)
	sb.WriteString("\n\n")

	for _, a := range prior {
		sb.WriteString(fmt.Sprintf("Attempt %d (confidence %.2f):\n---\n", a.Number, a.Confidence))
		sb.WriteString(a.Answer)
		sb.WriteString("\n---\n")
		if a.Feedback != "" {
			sb.WriteString(fmt.Sprintf("Feedback: %s\n", a.Feedback))
		}
		if len(a.Issues) > 0 {
			sb.WriteString("Issues found:\n")
			for _, issue := range a.Issues {
				sb.WriteString(fmt.Sprintf("- %s\n", issue))
			}
		}
		if len(a.Suggestions) > 0 {
			sb.WriteString("Suggestions:\n")
			for _, s := range a.Suggestions {
				sb.WriteString(fmt.Sprintf("- %s\n", s))
			}
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Write a new answer that fixes every issue above. Do NOT repeat a previous answer unchanged.\n")
	return sb.String()
}

func buildCritiquePrompt(task, answer string) string {
	var sb strings.Builder
	sb.WriteString("Critically review the answer below.\n\n")
	sb.WriteString("Task:\n")
	sb.WriteString(task)
	sb.WriteString("\n\nAnswer:\n---\n")
	sb.WriteString(answer)
	sb.WriteString("\n---\n\n")
	sb.WriteString("Return ONLY JSON: {\"confidence\":0-1,\"issues\":[...],\"feedback\":\"...\",")
	sb.WriteString("\"strengths\":[...],\"suggestions\":[...]}. Leave issues empty if the answer is correct and complete.\n")
	return sb.String()
}

func buildQuickCheckPrompt(response, request string) string {
	var sb strings.Builder
	sb.WriteString("Decide whether the response adequately answers the request.\n\n")
	sb.WriteString("Request:\n")
	sb.WriteString(request)
	sb.WriteString("\n\nResponse:\n---\n")
	sb.WriteString(response)
	sb.WriteString("\n---\n\n")
	sb.WriteString("Return ONLY JSON: {\"approved\":true|false,\"reason\":\"...\"}.\n")
	return sb.String()
}

func buildClaimsPrompt(answer string) string {
	var sb strings.Builder
	sb.WriteString("Break the text below into atomic factual claims that can each be checked on their own.\n\n")
	sb.WriteString("Text:\n---\n")
	sb.WriteString(answer)
	sb.WriteString("\n---\n\n")
	sb.WriteString("Return ONLY a JSON array of strings.\n")
	return sb.String()
}

func buildVerifyClaimPrompt(task, claim string) string {
	var sb strings.Builder
	sb.WriteString("Check whether this claim is factually correct.\n\n")
	sb.WriteString("Context task:\n")
	sb.WriteString(task)
	sb.WriteString("\n\nClaim:\n")
	sb.WriteString(claim)
	sb.WriteString("\n\nReturn ONLY JSON: {\"supported\":true|false,\"correction\":\"corrected claim if unsupported\"}.\n")
	return sb.String()
}

func buildCorrectionPrompt(task, answer string, failed []ClaimCheck) string {
	var sb strings.Builder
	sb.WriteString("The following answer contains claims that failed verification:\n\n")
	sb.WriteString("---\n")
	sb.WriteString(answer)
	sb.WriteString("\n---\n\n")

	sb.WriteString("Failed claims:\n")
	for _, c := range failed {
		sb.WriteString(fmt.Sprintf("- %s\n", c.Claim))
		if c.Correction != "" {
			sb.WriteString(fmt.Sprintf("  Correction: %s\n", c.Correction))
		}
	}

	sb.WriteString("\nTask:\n")
	sb.WriteString(task)
	sb.WriteString("\n\nRewrite the answer so every failed claim is corrected. Keep everything else.\n")
	return sb.String()
}
