package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"task-manager/backend/logging"
	"task-manager/backend/models"
	"task-manager/backend/policy"
	"task-manager/backend/utils"
)

// InvalidCredentialsMessage is returned for every failed sign-in so that callers
// cannot tell an unknown account from a wrong password.
const InvalidCredentialsMessage = "The username and/or password you specified are not correct."

type UserServiceConfig struct {
	AdminInviteToken string
	ResetLinkBase    string
	BlackList        utils.PasswordBlacklist
}

type UserService struct {
	users  UserStore
	tasks  TaskStore
	tokens *utils.TokenManager
	mailer Mailer
	cfg    UserServiceConfig
	now    func() time.Time
}

func NewUserService(users UserStore, tasks TaskStore, tokens *utils.TokenManager, mailer Mailer, cfg UserServiceConfig) *UserService {
	return &UserService{
		users:  users,
		tasks:  tasks,
		tokens: tokens,
		mailer: mailer,
		cfg:    cfg,
		now:    time.Now,
	}
}

type RegisterInput struct {
	Username         string
	Email            string
	Password         string
	Avatar           string
	AdminInviteToken string
}

// AuthResult is a user together with a freshly issued session token.
type AuthResult struct {
	User  models.User
	Token string
}

func (s *UserService) validatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("%w: password is required", ErrValidation)
	}
	if s.cfg.BlackList.Contains(password) {
		return fmt.Errorf("%w: password is too common, please choose a stronger one", ErrValidation)
	}
	return nil
}

// Register creates a member account, or an admin account when the invite token matches.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if username == "" || email == "" {
		return AuthResult{}, fmt.Errorf("%w: username and email are required", ErrValidation)
	}
	// Only a bare mailbox is stored; display names and angle brackets are rejected.
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Name != "" || addr.Address != email {
		return AuthResult{}, fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	email = addr.Address
	if err := s.validatePassword(in.Password); err != nil {
		return AuthResult{}, err
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return AuthResult{}, fmt.Errorf("%w: User already exists.", ErrConflict)
	} else if !errors.Is(err, ErrNotFound) {
		return AuthResult{}, fmt.Errorf("failed to look up email: %w", err)
	}
	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		return AuthResult{}, fmt.Errorf("%w: username is already taken", ErrConflict)
	} else if !errors.Is(err, ErrNotFound) {
		return AuthResult{}, fmt.Errorf("failed to look up username: %w", err)
	}

	role := models.RoleMember
	if s.cfg.AdminInviteToken != "" && in.AdminInviteToken == s.cfg.AdminInviteToken {
		role = models.RoleAdmin
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return AuthResult{}, err
	}

	avatar := strings.TrimSpace(in.Avatar)
	if avatar == "" {
		avatar = models.DefaultAvatar
	}

	now := s.now()
	user := models.User{
		Username:  username,
		Email:     email,
		Password:  hash,
		Avatar:    avatar,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Insert(ctx, &user); err != nil {
		if errors.Is(err, ErrConflict) {
			return AuthResult{}, fmt.Errorf("%w: User already exists.", ErrConflict)
		}
		return AuthResult{}, fmt.Errorf("failed to save user: %w", err)
	}

	token, err := s.tokens.GenerateSessionToken(user.ID.Hex())
	if err != nil {
		return AuthResult{}, err
	}

	logging.Logger.Infof("Event ID: USER_REGISTERED, Description: Registered user '%s' with role '%s'", user.Username, user.Role)
	return AuthResult{User: user, Token: token}, nil
}

// Authenticate signs a user in by username or e-mail.
func (s *UserService) Authenticate(ctx context.Context, identifier, password string) (AuthResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return AuthResult{}, fmt.Errorf("%w: %s", ErrUnauthorized, InvalidCredentialsMessage)
	}

	user, err := s.users.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			logging.Logger.Warnf("Event ID: SIGNIN_UNKNOWN_USER, Description: Sign-in attempt for unknown identifier '%s'", identifier)
			return AuthResult{}, fmt.Errorf("%w: %s", ErrUnauthorized, InvalidCredentialsMessage)
		}
		return AuthResult{}, fmt.Errorf("failed to look up user: %w", err)
	}

	if !utils.CheckPassword(user.Password, password) {
		logging.Logger.Warnf("Event ID: SIGNIN_BAD_PASSWORD, Description: Wrong password for user '%s'", user.Username)
		return AuthResult{}, fmt.Errorf("%w: %s", ErrUnauthorized, InvalidCredentialsMessage)
	}

	token, err := s.tokens.GenerateSessionToken(user.ID.Hex())
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{User: user, Token: token}, nil
}

// VerifySession returns the user id carried by a valid session token.
func (s *UserService) VerifySession(token string) (primitive.ObjectID, error) {
	id, err := s.tokens.ValidateSessionToken(token)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: malformed subject", ErrUnauthorized)
	}
	return oid, nil
}

// ResolveCaller verifies the token and loads the caller's current role.
func (s *UserService) ResolveCaller(ctx context.Context, token string) (models.Caller, error) {
	id, err := s.VerifySession(token)
	if err != nil {
		return models.Caller{}, err
	}
	user, err := s.Profile(ctx, id)
	if err != nil {
		return models.Caller{}, err
	}
	return user.Caller(), nil
}

// Profile returns the caller's own record. A vanished account is Unauthorized.
func (s *UserService) Profile(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.User{}, fmt.Errorf("%w: User not found", ErrUnauthorized)
		}
		return models.User{}, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

// RequestPasswordReset mails a 15-minute reset link to the account's address.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}

	if _, err := s.users.FindByEmail(ctx, email); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: User not found.", ErrNotFound)
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}

	token, err := s.tokens.GenerateResetToken(email)
	if err != nil {
		return err
	}

	link := fmt.Sprintf("%s/accounts/reset-password/%s", strings.TrimRight(s.cfg.ResetLinkBase, "/"), token)
	body := fmt.Sprintf(`<p>Click <a href="%s">here</a> to reset your password. Please note this email is valid for 15 minutes. If you did not request a password reset you can safely ignore this email.</p>`, link)
	if err := s.mailer.Send(email, "[TaskManager] Password Reset E-mail", body); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}

	logging.Logger.Infof("Event ID: PASSWORD_RESET_REQUESTED, Description: Password reset link sent to '%s'", email)
	return nil
}

// ResetPassword replaces the password of the account named by a reset token.
func (s *UserService) ResetPassword(ctx context.Context, token, newPassword string) error {
	email, err := s.tokens.ValidateResetToken(token)
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			return fmt.Errorf("%w: Credentials expired.", ErrExpired)
		}
		return fmt.Errorf("%w: invalid reset token", ErrUnauthorized)
	}
	if err := s.validatePassword(newPassword); err != nil {
		return err
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: User not found.", ErrNotFound)
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	logging.Logger.Infof("Event ID: PASSWORD_RESET, Description: Password reset for user '%s'", user.Username)
	return nil
}

func (s *UserService) GetUser(ctx context.Context, caller models.Caller, id string) (models.User, error) {
	if err := authorize(caller, policy.UserRead, false); err != nil {
		return models.User{}, err
	}
	oid, err := parseObjectID(id, "user")
	if err != nil {
		return models.User{}, err
	}
	user, err := s.users.FindByID(ctx, oid)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.User{}, fmt.Errorf("%w: User not found", ErrNotFound)
		}
		return models.User{}, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

// DeleteUser removes the account and drops it from every task assignment.
func (s *UserService) DeleteUser(ctx context.Context, caller models.Caller, id string) error {
	if err := authorize(caller, policy.UserDelete, false); err != nil {
		return err
	}
	oid, err := parseObjectID(id, "user")
	if err != nil {
		return err
	}

	if _, err := s.users.FindByID(ctx, oid); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: User not found", ErrNotFound)
		}
		return fmt.Errorf("failed to load user: %w", err)
	}

	// Assignments go first so a failed delete never leaves dangling references.
	if err := s.tasks.PullAssignee(ctx, oid); err != nil {
		return fmt.Errorf("failed to remove user from tasks: %w", err)
	}
	if err := s.users.Delete(ctx, oid); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: User not found", ErrNotFound)
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	logging.Logger.Infof("Event ID: USER_DELETED, Description: User %s deleted by %s", oid.Hex(), caller.ID.Hex())
	return nil
}
