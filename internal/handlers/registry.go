package handlers

// AppHandlers содержит все хэндлеры приложения.
type AppHandlers struct {
	AuthHandler     *AuthHandler
	WaitlistHandler *WaitlistHandler
	FashionHandler  *FashionHandler
	OutfitHandler   *OutfitHandler
	ProfileHandler  *ProfileHandler
	CreditsHandler  *CreditsHandler
	HealthHandler   *HealthHandler
	FileHandler     *FileHandler // nil, если хранилище не local
}
