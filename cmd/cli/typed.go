package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/and161185/health-keeper/internal/model"
)

// parseAnswers turns key=value arguments into typed answers.
// true/false become booleans, numeric literals numbers, everything else strings.
// Wrap a value in double quotes to force a string ("54").
func parseAnswers(args []string) (model.Answers, error) {
	out := make(model.Answers, len(args))
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("answer %q: want key=value", a)
		}
		if _, dup := out[k]; dup {
			return nil, fmt.Errorf("answer %q given twice", k)
		}
		out[k] = typedValue(v)
	}
	return out, nil
}

func typedValue(v string) model.AnswerValue {
	if len(v) >= 2 && strings.HasPrefix(v, `"`) && strings.HasSuffix(v, `"`) {
		return model.String(v[1 : len(v)-1])
	}
	switch strings.ToLower(v) {
	case "true", "yes":
		return model.Bool(true)
	case "false", "no":
		return model.Bool(false)
	}
	if n, err := strconv.ParseFloat(v, 64); err == nil && !strings.ContainsAny(v, "xXpP_") && !math.IsInf(n, 0) && !math.IsNaN(n) {
		return model.Number(n)
	}
	return model.String(v)
}
