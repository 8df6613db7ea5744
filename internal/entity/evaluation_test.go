package entity

import (
	"fmt"
	"reflect"
	"testing"
)

func result(qid, predicted, truth string, elapsed float64) InferenceResult {
	q := &Question{ID: qid, Answer: truth}
	var t *float64
	if elapsed > 0 {
		t = &elapsed
	}
	return NewInferenceResult(q, predicted, t)
}

func TestEvaluate(t *testing.T) {
	results := []InferenceResult{
		result("q1", "A", "A", 1),
		result("q2", "B", "A", 3),
		result("q3", "C", "", 0),
		result("q4", "A", "D", 0),
	}

	ev := Evaluate("small_direct", results)

	if ev.Total != 4 || ev.Scored != 3 || ev.Correct != 1 || ev.Errors != 2 {
		t.Errorf("counts = %+v", ev)
	}
	if ev.Accuracy != 1.0/3 {
		t.Errorf("Accuracy = %v, want 1/3", ev.Accuracy)
	}
	if ev.AverageTime != 2 {
		t.Errorf("AverageTime = %v, want 2", ev.AverageTime)
	}
	want := []LetterCount{{"A", 2}, {"B", 1}, {"C", 1}}
	if !reflect.DeepEqual(ev.Predictions, want) {
		t.Errorf("Predictions = %v, want %v", ev.Predictions, want)
	}
}

func TestEvaluateSampleErrorsBounded(t *testing.T) {
	var results []InferenceResult
	for i := 0; i < 8; i++ {
		results = append(results, result(fmt.Sprintf("q%d", i), "B", "A", 0))
	}

	ev := Evaluate("run", results)
	if ev.Errors != 8 || len(ev.SampleErrors) != MaxSampleErrors {
		t.Errorf("errors = %d with %d samples", ev.Errors, len(ev.SampleErrors))
	}
	if ev.SampleErrors[0].QID != "q0" {
		t.Errorf("first sample = %s, want q0", ev.SampleErrors[0].QID)
	}
}

func TestEvaluateEmpty(t *testing.T) {
	ev := Evaluate("run", nil)
	if ev.Accuracy != 0 || ev.Scored != 0 || ev.SampleErrors == nil {
		t.Errorf("Evaluate(nil) = %+v", ev)
	}
}
