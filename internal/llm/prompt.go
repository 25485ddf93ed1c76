package llm

import "fmt"

// qwenSystemPrompt keeps DashScope models on strict JSON output.
const qwenSystemPrompt = "You are an expert at recognizing application problems " +
	"(word problems) in Chinese textbook pages. Always answer in Chinese and " +
	"return results strictly as JSON."

// BuildPrompt creates the extraction prompt for one page. A non-empty custom
// prompt replaces the default entirely, mirroring the upstream behavior.
func BuildPrompt(document string, custom string) string {
	if custom != "" {
		return custom
	}
	return fmt.Sprintf(`You are an expert at recognizing and analyzing application problems (word problems). Carefully analyze the problems on this textbook page image.

Rules:
1. Answer in Chinese.
2. Return ONLY valid JSON, with no markdown code fences and no explanatory text.

Analysis requirements:
1. Identify every application problem on the page, numbered in reading order.
2. Extract the complete text of each problem.
3. If the page shows an answer, extract it.
4. If the page shows a worked solution or analysis, extract it as notes.
5. Classify the problem type (e.g. arithmetic, ratio, geometry, travel).
6. List the knowledge points each problem covers.
7. Estimate the grade level the problem targets.
8. Rate the difficulty as easy, medium or hard.
9. Give a recognition confidence between 0 and 1.

Output format (follow exactly):
{
  "questions": [
    {
      "id": 1,
      "content": "problem text",
      "type": "problem type",
      "knowledge_points": ["point 1", "point 2"],
      "grade_level": "grade",
      "difficulty": "medium",
      "answer": "answer if present",
      "explanation": "solution notes if present",
      "confidence": 0.95,
      "source": "%s"
    }
  ]
}

If the page contains no application problems, return {"questions": []}.
Uncertain fields may be empty strings. The output must be valid JSON.`, document)
}
