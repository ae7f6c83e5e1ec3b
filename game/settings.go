package game

// Difficulty presets map to a color-match tolerance; an explicit tolerance
// in a settings update overrides the preset.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

const maxColorDistance = 442 // ceil of the black/white diagonal

var difficultyTolerances = map[string]float64{
	DifficultyEasy:   50,
	DifficultyMedium: 30,
	DifficultyHard:   15,
}

// Settings are the per-room game parameters. DartSpeed is cosmetic and only
// echoed back to clients for throw animation.
type Settings struct {
	ColorTolerance     float64 `json:"colorTolerance"`
	MaxThrows          int     `json:"maxThrows"`
	DartSpeed          float64 `json:"dartSpeed"`
	Difficulty         string  `json:"difficulty"`
	FreshTargetOnStart bool    `json:"freshTargetOnStart"`
}

func DefaultSettings() Settings {
	return Settings{
		ColorTolerance: difficultyTolerances[DifficultyMedium],
		MaxThrows:      10,
		DartSpeed:      15,
		Difficulty:     DifficultyMedium,
	}
}

// SettingsPatch is a partial settings update; nil fields are left untouched.
type SettingsPatch struct {
	ColorTolerance     *float64 `json:"colorTolerance"`
	MaxThrows          *int     `json:"maxThrows"`
	DartSpeed          *float64 `json:"dartSpeed"`
	Difficulty         *string  `json:"difficulty"`
	FreshTargetOnStart *bool    `json:"freshTargetOnStart"`
}

// apply validates the patch against s and returns the merged settings.
// Choosing a difficulty without an explicit tolerance adopts the preset.
func (s Settings) apply(p SettingsPatch) (Settings, error) {
	if p.Difficulty != nil {
		tol, ok := difficultyTolerances[*p.Difficulty]
		if !ok {
			return s, ErrInvalidSettings
		}
		s.Difficulty = *p.Difficulty
		if p.ColorTolerance == nil {
			s.ColorTolerance = tol
		}
	}
	if p.ColorTolerance != nil {
		if *p.ColorTolerance <= 0 || *p.ColorTolerance > maxColorDistance {
			return s, ErrInvalidSettings
		}
		s.ColorTolerance = *p.ColorTolerance
	}
	if p.MaxThrows != nil {
		if *p.MaxThrows < 1 || *p.MaxThrows > 99 {
			return s, ErrInvalidSettings
		}
		s.MaxThrows = *p.MaxThrows
	}
	if p.DartSpeed != nil {
		if *p.DartSpeed <= 0 || *p.DartSpeed > 100 {
			return s, ErrInvalidSettings
		}
		s.DartSpeed = *p.DartSpeed
	}
	if p.FreshTargetOnStart != nil {
		s.FreshTargetOnStart = *p.FreshTargetOnStart
	}
	return s, nil
}
