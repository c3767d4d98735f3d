package auth

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// LoginRequest carries a login attempt.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate enforces field constraints on the login payload.
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// LoginResponse is the successful login payload.
type LoginResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
}

// MessageResponse is a generic acknowledgment payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the API error payload. Fields is only present on
// validation failures.
type ErrorResponse struct {
	Message string            `json:"message"`
	Code    string            `json:"code,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// HTTPController exposes the authentication endpoints over fiber.
type HTTPController struct {
	auther    Authenticator
	customers CustomerFinder
	logger    Logger
}

// NewHTTPController creates the controller.
func NewHTTPController(auther Authenticator, customers CustomerFinder) *HTTPController {
	return &HTTPController{
		auther:    auther,
		customers: customers,
		logger:    defLogger{},
	}
}

func (h *HTTPController) WithLogger(logger Logger) *HTTPController {
	h.logger = logger
	return h
}

// RegisterRoutes mounts the auth endpoints. The spring-era aliases are
// kept so existing clients do not break.
func (h *HTTPController) RegisterRoutes(app fiber.Router) {
	app.Post("/auth/login", h.Login)
	app.Post("/auth/signin", h.Login)
	app.Post("/auth/register", h.Register)
	app.Post("/auth/signup", h.Register)
	app.Get("/auth/activate-account", h.Activate)
	app.Get("/me", h.Me)
}

// Login handles POST /auth/login.
func (h *HTTPController) Login(c *fiber.Ctx) error {
	req := LoginRequest{}
	if err := c.BodyParser(&req); err != nil {
		return h.respondError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid request body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := req.Validate(); err != nil {
		return h.respondValidation(c, err)
	}

	token, err := h.auther.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
	})
}

// Register handles POST /auth/register. Success is a 202: the account
// exists but stays disabled until the emailed code is redeemed.
func (h *HTTPController) Register(c *fiber.Ctx) error {
	msg := RegisterCustomerMessage{}
	if err := c.BodyParser(&msg); err != nil {
		return h.respondError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid request body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := h.auther.Register(c.UserContext(), msg); err != nil {
		return h.respondError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(MessageResponse{
		Message: "account created, check your email for the activation code",
	})
}

// Activate handles GET /auth/activate-account?token=CODE.
func (h *HTTPController) Activate(c *fiber.Ctx) error {
	code := c.Query("token")
	if code == "" {
		return h.respondError(c, goerrors.New("token query parameter is required", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest))
	}

	if err := h.auther.Activate(c.UserContext(), code); err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(MessageResponse{Message: "account activated"})
}

// Me handles GET /me, echoing the authenticated principal.
func (h *HTTPController) Me(c *fiber.Ctx) error {
	principal, ok := PrincipalFromContext(c.UserContext())
	if !ok {
		return h.respondError(c, ErrUnauthenticated)
	}

	return c.JSON(fiber.Map{
		"email":     principal.Email(),
		"firstName": principal.Customer.FirstName,
		"lastName":  principal.Customer.LastName,
		"roles":     principal.Roles(),
	})
}

func (h *HTTPController) respondValidation(c *fiber.Ctx, err error) error {
	res := ErrorResponse{
		Message: "validation failed",
		Code:    "VALIDATION_ERROR",
	}

	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		res.Fields = make(map[string]string, len(fieldErrs))
		for field, fieldErr := range fieldErrs {
			res.Fields[field] = fieldErr.Error()
		}
	}

	return c.Status(fiber.StatusBadRequest).JSON(res)
}

func (h *HTTPController) respondError(c *fiber.Ctx, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
			WithCode(goerrors.CodeInternal)
	}

	if richErr.Category == goerrors.CategoryValidation {
		return h.respondValidation(c, err)
	}

	h.logger.Info(
		"request failed",
		"error", richErr.Message,
		"category", richErr.Category,
		"path", c.Path(),
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	status := fiber.StatusInternalServerError
	if richErr.Code != 0 {
		status = richErr.Code
	}

	return c.Status(status).JSON(ErrorResponse{
		Message: richErr.Message,
		Code:    richErr.TextCode,
	})
}
