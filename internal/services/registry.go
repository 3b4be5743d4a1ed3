package services

// ServiceContainer содержит все сервисы приложения.
type ServiceContainer struct {
	Ledger   LedgerService
	Auth     AuthService
	Waitlist WaitlistService
	Fashion  FashionService
	Outfit   OutfitService
	Payment  PaymentService
	Profile  ProfileService
}
