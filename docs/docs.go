// Package docs регистрирует описание API для /swagger.
// Аннотации в cmd/web и internal/handlers - источник для swag init.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {"get": {"tags": ["system"], "summary": "Liveness", "responses": {"200": {"description": "OK"}}}},
        "/api/waitlist": {"post": {"tags": ["waitlist"], "summary": "Join the waitlist", "responses": {"201": {"description": "Created"}, "400": {"description": "Duplicate email"}}}},
        "/api/register": {"post": {"tags": ["auth"], "summary": "Register an approved email", "responses": {"201": {"description": "Created"}, "400": {"description": "Taken"}, "403": {"description": "Not approved"}}}},
        "/api/login": {"post": {"tags": ["auth"], "summary": "Log in", "responses": {"200": {"description": "OK"}, "401": {"description": "Invalid credentials"}}}},
        "/api/logout": {"post": {"tags": ["auth"], "summary": "Log out", "responses": {"200": {"description": "OK"}}}},
        "/api/user": {"get": {"tags": ["auth"], "summary": "Current user", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/api/auth/setup-password": {"post": {"tags": ["auth"], "summary": "Set password from the approval email", "responses": {"200": {"description": "OK"}, "400": {"description": "Expired"}, "404": {"description": "Unknown token"}}}},
        "/api/fashion/advice": {"post": {"tags": ["fashion"], "summary": "Stylist advice (1 credit)", "responses": {"200": {"description": "OK"}, "402": {"description": "Insufficient credits"}}}},
        "/api/fashion/analyze": {"post": {"tags": ["fashion"], "summary": "Outfit analysis (2 credits)", "responses": {"200": {"description": "OK"}, "402": {"description": "Insufficient credits"}}}},
        "/api/fashion/transfer": {"post": {"tags": ["fashion"], "summary": "Style transfer (3 credits)", "responses": {"200": {"description": "OK"}, "402": {"description": "Insufficient credits"}}}},
        "/api/outfits": {
            "get": {"tags": ["outfits"], "summary": "List outfits", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["outfits"], "summary": "Rate an outfit (2 credits)", "responses": {"201": {"description": "Created"}, "402": {"description": "Insufficient credits"}}}
        },
        "/api/outfits/{id}": {"get": {"tags": ["outfits"], "summary": "Outfit with rating", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not found"}}}},
        "/api/profile/upload-image": {"post": {"tags": ["profile"], "summary": "Upload a profile photo", "responses": {"200": {"description": "OK"}, "413": {"description": "Too large"}}}},
        "/api/profile/preferences": {"post": {"tags": ["profile"], "summary": "Save style preferences", "responses": {"200": {"description": "OK"}}}},
        "/api/profile/complete-onboarding": {"post": {"tags": ["profile"], "summary": "Complete onboarding", "responses": {"200": {"description": "OK"}}}},
        "/api/profile/skip-onboarding": {"post": {"tags": ["profile"], "summary": "Skip onboarding", "responses": {"200": {"description": "OK"}}}},
        "/api/profile/images": {"get": {"tags": ["profile"], "summary": "Saved images", "responses": {"200": {"description": "OK"}}}},
        "/api/images/saved": {"get": {"tags": ["profile"], "summary": "Saved images", "responses": {"200": {"description": "OK"}}}},
        "/api/user/preferences": {"patch": {"tags": ["profile"], "summary": "Update preferences", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}},
        "/api/user/interests": {"patch": {"tags": ["profile"], "summary": "Update fashion interests", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}},
        "/api/credits/balance": {"get": {"tags": ["credits"], "summary": "Credit balance", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/api/credits/packages": {
            "get": {"tags": ["credits"], "summary": "Credit package catalog", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["credits"], "summary": "Credit package catalog", "responses": {"200": {"description": "OK"}}}
        },
        "/api/credits/create-payment-intent": {"post": {"tags": ["credits"], "summary": "Create a payment", "responses": {"200": {"description": "OK"}, "400": {"description": "Unknown package"}}}},
        "/api/credits/payment-success": {"post": {"tags": ["credits"], "summary": "Confirm a payment", "responses": {"200": {"description": "OK"}, "403": {"description": "Foreign payment"}}}},
        "/api/webhook/stripe": {"post": {"tags": ["credits"], "summary": "Stripe webhook", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad signature"}}}},
        "/api/admin/waitlist": {"get": {"tags": ["admin"], "summary": "List waitlist", "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}},
        "/api/admin/waitlist/approve": {"post": {"tags": ["admin"], "summary": "Approve a waitlist entry", "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}}},
        "/api/admin/waitlist/import": {"post": {"tags": ["admin"], "summary": "Push waitlist contacts to the mailing list", "responses": {"200": {"description": "OK"}}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Eva Harper API",
	Description:      "AI fashion assistant backend.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
