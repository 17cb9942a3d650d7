package generation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FlexInt accepts a JSON number, a numeric string ("3") or a range ("3-4", first bound wins).
type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) == 0 {
		return errors.New("flexint: empty value")
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		n, err := parseLeadingInt(s)
		if err != nil {
			return err
		}
		*f = FlexInt(n)
		return nil
	}

	var num float64
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("flexint: %w", err)
	}
	if num != math.Trunc(num) {
		return fmt.Errorf("flexint: %v is not a whole number", num)
	}
	if num < math.MinInt32 || num > math.MaxInt32 {
		return fmt.Errorf("flexint: %v is out of range", num)
	}
	*f = FlexInt(int(num))
	return nil
}

func (f FlexInt) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Itoa(int(f))), nil
}

func parseLeadingInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	for _, sep := range []string{"-", "–", " to ", "x"} {
		if i := strings.Index(s, sep); i > 0 {
			s = strings.TrimSpace(s[:i])
			break
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("flexint: %q is not a number", s)
	}
	return n, nil
}

// Meal is one meal-type label and its free-text description.
type Meal struct {
	Type        string `validate:"required"`
	Description string
}

type MealPlanDay struct {
	Day   string `validate:"required"`
	Meals []Meal `validate:"required,min=1,dive"`
}

// WeeklyMealPlan keeps days and meals in the order the model produced them.
type WeeklyMealPlan []MealPlanDay

func (p WeeklyMealPlan) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, day := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(day.Day)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteString(":{")
		for j, meal := range day.Meals {
			if j > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(meal.Type)
			if err != nil {
				return nil, err
			}
			v, err := json.Marshal(meal.Description)
			if err != nil {
				return nil, err
			}
			buf.Write(k)
			buf.WriteByte(':')
			buf.Write(v)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (p *WeeklyMealPlan) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if err := expectDelim(dec, '{'); err != nil {
		return err
	}

	plan := WeeklyMealPlan{}
	for dec.More() {
		day, err := readKey(dec)
		if err != nil {
			return err
		}
		if err := expectDelim(dec, '{'); err != nil {
			return fmt.Errorf("day %q: %w", day, err)
		}

		entry := MealPlanDay{Day: day}
		for dec.More() {
			mealType, err := readKey(dec)
			if err != nil {
				return err
			}
			desc, err := readScalarText(dec)
			if err != nil {
				return fmt.Errorf("day %q meal %q: %w", day, mealType, err)
			}
			entry.Meals = append(entry.Meals, Meal{Type: mealType, Description: desc})
		}
		if err := expectDelim(dec, '}'); err != nil {
			return err
		}
		plan = append(plan, entry)
	}
	if err := expectDelim(dec, '}'); err != nil {
		return err
	}

	*p = plan
	return nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return key, nil
}

// readScalarText coerces strings, numbers and booleans to text; objects, arrays and null are rejected.
func readScalarText(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	switch v := tok.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return "", fmt.Errorf("expected text, got %v", tok)
	}
}

type Exercise struct {
	Name             string   `json:"name" validate:"required"`
	Sets             FlexInt  `json:"sets" validate:"min=1"`
	Reps             string   `json:"reps" validate:"required"`
	Rest             string   `json:"rest"`
	Muscle           string   `json:"muscle"`
	Difficulty       string   `json:"difficulty"`
	VideoURL         string   `json:"videoUrl,omitempty"`
	Instructions     []string `json:"instructions"`
	PrimaryMuscles   []string `json:"primaryMuscles"`
	SecondaryMuscles []string `json:"secondaryMuscles"`
}

type WorkoutPlan struct {
	Exercises      []Exercise `json:"exercises" validate:"required,min=1,dive"`
	WorkoutType    string     `json:"workoutType"`
	TotalDuration  string     `json:"totalDuration"`
	TotalExercises FlexInt    `json:"totalExercises" validate:"min=0"`
}

// SplitExercise is the lighter exercise shape used inside a workout split.
type SplitExercise struct {
	Name        string  `json:"name" validate:"required"`
	Sets        FlexInt `json:"sets" validate:"min=1"`
	Reps        string  `json:"reps" validate:"required"`
	Rest        string  `json:"rest"`
	MuscleGroup string  `json:"muscleGroup"`
	Equipment   string  `json:"equipment,omitempty"`
}

type WorkoutDay struct {
	Day       string          `json:"day" validate:"required"`
	Focus     string          `json:"focus"`
	Exercises []SplitExercise `json:"exercises" validate:"dive"`
	Duration  string          `json:"duration"`
}

type WorkoutSplit struct {
	SplitName      string       `json:"splitName"`
	Goal           string       `json:"goal"`
	Experience     string       `json:"experience"`
	Location       string       `json:"location"`
	Days           []WorkoutDay `json:"days" validate:"required,min=1,dive"`
	TotalDuration  string       `json:"totalDuration"`
	TotalExercises FlexInt      `json:"totalExercises" validate:"min=0"`
}
