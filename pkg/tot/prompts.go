package tot

import (
	"fmt"
	"strings"

	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/decode"
)

func writePath(sb *strings.Builder, path []string) {
	if len(path) <= 1 {
		return
	}
	sb.WriteString("Reasoning so far:\n")
	for i, step := range path[1:] {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, step))
	}
	sb.WriteString("\n")
}

func buildGeneratePrompt(problem string, path []string, style string) string {
	var sb strings.Builder
	sb.WriteString("Problem:\n")
	sb.WriteString(problem)
	sb.WriteString("\n\n")
	writePath(&sb, path)
	sb.WriteString("Propose the single next reasoning step. ")
	sb.WriteString(style)
	sb.WriteString("\nIf this step solves the problem, end with a line starting with ")
	sb.WriteString(decode.FinalAnswerMarker)
	sb.WriteString(" followed by the answer.\n")
	return sb.String()
}

func buildEvaluatePrompt(problem string, path []string, thought string) string {
	var sb strings.Builder
	sb.WriteString("You are grading one step of a reasoning process.\n\n")
	sb.WriteString("Problem:\n")
	sb.WriteString(problem)
	sb.WriteString("\n\n")
	writePath(&sb, path)
	sb.WriteString("Candidate step:\n")
	sb.WriteString(thought)
	sb.WriteString("\n\nScore the candidate from 0 to 10 on validity, progress, coherence and promise.\n")
	sb.WriteString("Return ONLY JSON: {\"validity\":0-10,\"progress\":0-10,\"coherence\":0-10,\"promise\":0-10}.\n")
	return sb.String()
}

func buildSolvePrompt(problem string) string {
	var sb strings.Builder
	sb.WriteString("Solve the following problem independently. Show your reasoning briefly, ")
	sb.WriteString("then end with a line starting with ")
	sb.WriteString(decode.FinalAnswerMarker)
	sb.WriteString(" followed by only the answer.\n\nProblem:\n")
	sb.WriteString(problem)
	return sb.String()
}
