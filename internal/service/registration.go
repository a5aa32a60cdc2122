package service

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/intervention-decision-service/internal/logger"
	"github.com/iliyamo/intervention-decision-service/internal/model"
	"github.com/iliyamo/intervention-decision-service/internal/repository"
)

// RegisterRequest is the enrollment payload.  Hours are pointers so a
// missing field can be told apart from hour zero.
type RegisterRequest struct {
	UserID       string `json:"user_id"`
	StartDate    string `json:"rl_start_date"`
	EndDate      string `json:"rl_end_date"`
	MorningStart *int   `json:"morning_start_hour"`
	MorningEnd   *int   `json:"morning_end_hour"`
	EveningStart *int   `json:"evening_start_hour"`
	EveningEnd   *int   `json:"evening_end_hour"`
}

// RegistrationService enrolls users.
type RegistrationService struct {
	Users *repository.UserRepo
	Log   *logger.Logger
}

func NewRegistrationService(users *repository.UserRepo, log *logger.Logger) *RegistrationService {
	return &RegistrationService{Users: users, Log: log}
}

func morningHour(h int) bool { return h >= 4 && h <= 16 }
func eveningHour(h int) bool { return (h >= 16 && h <= 24) || (h >= 0 && h <= 4) }

// Validate checks the request and builds the user it describes.
func (r RegisterRequest) Validate() (model.User, *Error) {
	userID := strings.TrimSpace(r.UserID)
	switch {
	case userID == "":
		return model.User{}, invalid(100, "please provide a valid user id")
	case strings.TrimSpace(r.StartDate) == "":
		return model.User{}, invalid(101, "please provide a valid rl start date")
	case strings.TrimSpace(r.EndDate) == "":
		return model.User{}, invalid(102, "please provide a valid rl end date")
	case r.MorningStart == nil:
		return model.User{}, invalid(103, "please provide a valid morning start hour")
	case r.MorningEnd == nil:
		return model.User{}, invalid(104, "please provide a valid morning end hour")
	case r.EveningStart == nil:
		return model.User{}, invalid(105, "please provide a valid evening start hour")
	case r.EveningEnd == nil:
		return model.User{}, invalid(106, "please provide a valid evening end hour")
	}
	ms, me, es, ee := *r.MorningStart, *r.MorningEnd, *r.EveningStart, *r.EveningEnd
	switch {
	case !morningHour(ms):
		return model.User{}, invalid(107, "morning start hour must be between 4 and 16")
	case !morningHour(me):
		return model.User{}, invalid(108, "morning end hour must be between 4 and 16")
	case !eveningHour(es):
		return model.User{}, invalid(109, "evening start hour must be between 16 and 4")
	case !eveningHour(ee):
		return model.User{}, invalid(110, "evening end hour must be between 16 and 4")
	case ms >= me:
		return model.User{}, invalid(111, "morning start hour must be less than morning end hour")
	case es >= ee:
		return model.User{}, invalid(112, "evening start hour must be less than evening end hour")
	}
	anchor, err := ParseDate(r.StartDate)
	if err != nil {
		return model.User{}, invalid(116, "rl start date must be formatted as %s or %s", TimestampLayout, DateLayout)
	}
	end, err := ParseDate(r.EndDate)
	if err != nil {
		return model.User{}, invalid(116, "rl end date must be formatted as %s or %s", TimestampLayout, DateLayout)
	}
	if !end.After(anchor) {
		return model.User{}, invalid(115, "rl end date must be after rl start date")
	}
	return model.User{
		UserID:       userID,
		AnchorAt:     anchor,
		EndAt:        end,
		MorningStart: ms,
		MorningEnd:   me,
		EveningStart: es,
		EveningEnd:   ee,
	}, nil
}

// Register validates req and enrolls the user with phase REGISTERED.
func (s *RegistrationService) Register(ctx context.Context, req RegisterRequest) (model.User, error) {
	u, verr := req.Validate()
	if verr != nil {
		return model.User{}, verr
	}
	if err := s.Users.Register(ctx, u); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return model.User{}, conflict(114, err, "user %s already exists", u.UserID)
		}
		s.Log.Error("register user failed", "user_id", u.UserID, "error", err)
		return model.User{}, internal(113, err)
	}
	s.Log.Info("user registered", "user_id", u.UserID, "anchor", FormatTimestamp(u.AnchorAt), "end", FormatTimestamp(u.EndAt))
	return u, nil
}
