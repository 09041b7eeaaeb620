// Package question loads the question bank from a JSON file.
package question

import (
	"fmt"
	"os"

	"github.com/tidwall/gjson"

	"github.com/mizuki-t/kanata/internal/answer"
	"github.com/mizuki-t/kanata/internal/model"
)

// Bank holds the loaded questions and their conversion table.
type Bank struct {
	Questions   []model.Question
	Conversions answer.Table
}

// Load reads the question bank from the provided file path. The document is
// `{"questions": [{"context","hiragana","kanji"}...], "conversionRules":
// {raw: {context: converted}}}`. An empty question list is an error; the game
// cannot start without one.
func Load(path string) (Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Bank{}, err
	}
	return Parse(data)
}

// Parse decodes a question bank document.
func Parse(data []byte) (Bank, error) {
	if !gjson.ValidBytes(data) {
		return Bank{}, fmt.Errorf("question bank is not valid JSON")
	}

	var bank Bank
	items := gjson.GetBytes(data, "questions")
	if !items.IsArray() {
		return Bank{}, fmt.Errorf("question bank has no questions array")
	}
	var parseErr error
	items.ForEach(func(_, item gjson.Result) bool {
		context := item.Get("context").String()
		hiragana := item.Get("hiragana").String()
		kanji := item.Get("kanji").String()
		if hiragana == "" || kanji == "" {
			parseErr = fmt.Errorf("question %d is missing hiragana or kanji", len(bank.Questions))
			return false
		}
		bank.Questions = append(bank.Questions, model.Question{
			Context:  context,
			Hiragana: hiragana,
			Expected: context + kanji,
		})
		return true
	})
	if parseErr != nil {
		return Bank{}, parseErr
	}
	if len(bank.Questions) == 0 {
		return Bank{}, fmt.Errorf("question bank is empty")
	}

	bank.Conversions = answer.Table{}
	gjson.GetBytes(data, "conversionRules").ForEach(func(raw, byContext gjson.Result) bool {
		entry := map[string]string{}
		byContext.ForEach(func(context, converted gjson.Result) bool {
			entry[context.String()] = converted.String()
			return true
		})
		bank.Conversions[raw.String()] = entry
		return true
	})
	return bank, nil
}
