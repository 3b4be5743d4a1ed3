package dto

import "eva_harper_backend/internal/models"

const (
	ProfileImagePortrait = "portrait"
	ProfileImageFullBody = "fullBody"
)

type UploadImageInput struct {
	Image []byte
	Type  string
}

// PreferencesRequest - тело шага онбординга
type PreferencesRequest struct {
	Preferences PreferencesPayload `json:"preferences"`
	Interests   InterestsPayload   `json:"interests"`
}

type PreferencesPayload struct {
	Style         string              `json:"style" validate:"max=100"`
	Age           *int                `json:"age" validate:"omitempty,gte=13,lte=120"`
	HairColor     string              `json:"hairColor" validate:"max=50"`
	HairStyle     string              `json:"hairStyle" validate:"max=50"`
	Notifications NotificationPayload `json:"notifications"`
}

type NotificationPayload struct {
	Email        bool `json:"email"`
	StyleUpdates bool `json:"styleUpdates"`
	Credits      bool `json:"credits"`
}

type InterestsPayload struct {
	FashionStyles  []string `json:"fashionStyles" validate:"max=30,dive,max=100"`
	FavoriteColors []string `json:"favoriteColors" validate:"max=30,dive,max=100"`
	Occasions      []string `json:"occasions" validate:"max=30,dive,max=100"`
}

func (p PreferencesPayload) ToModel() models.UserPreferences {
	return models.UserPreferences{
		Style:     p.Style,
		Age:       p.Age,
		HairColor: p.HairColor,
		HairStyle: p.HairStyle,
		Notifications: models.NotificationSettings{
			Email:        p.Notifications.Email,
			StyleUpdates: p.Notifications.StyleUpdates,
			Credits:      p.Notifications.Credits,
		},
	}
}

func (p InterestsPayload) ToModel() models.UserInterests {
	return models.UserInterests{
		FashionStyles:  nonNil(p.FashionStyles),
		FavoriteColors: nonNil(p.FavoriteColors),
		Occasions:      nonNil(p.Occasions),
	}
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
