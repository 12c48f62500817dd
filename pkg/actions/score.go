package actions

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

const (
	pointsPerAnswer = 10
	maxScore        = 100
)

// Score rates a lead from 0 to 100: a fixed amount per collected answer plus
// the bonus of every rule whose step has been answered.
func Score(answers map[string]string, rules map[string]int) int {
	score := len(answers) * pointsPerAnswer
	for stepID, points := range rules {
		if answers[stepID] != "" {
			score += points
		}
	}
	return max(0, min(maxScore, score))
}

type scoreParams struct {
	Rules map[string]int `mapstructure:"rules"`
}

// ScoreHandler computes the score and reports it as the step value.
// It produces no outgoing text.
func ScoreHandler(_ context.Context, req domain.ActionRequest) (domain.ActionResponse, error) {
	var params scoreParams
	if err := decodeParams(req.Params, &params); err != nil {
		return domain.ActionResponse{}, err
	}

	var answers map[string]string
	if req.Lead != nil {
		answers = req.Lead.Answers
	}
	return domain.ActionResponse{Value: strconv.Itoa(Score(answers, params.Rules))}, nil
}

func decodeParams(in map[string]any, out any) error {
	if len(in) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(in); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return nil
}
