package services

import (
	"sort"

	"github.com/icebreakerhq/icebreaker/config"
	"github.com/icebreakerhq/icebreaker/db"
	"github.com/icebreakerhq/icebreaker/models"
	"github.com/icebreakerhq/icebreaker/services/utils"
	"go.uber.org/zap"
)

const (
	defaultDiscoverLimit = 20
	maxDiscoverLimit     = 50
)

// DiscoverService deals the deck of members the viewer has not
// interacted with yet, nearest first. A positive radius keeps only
// members within that many kilometres of the viewer; it is ignored
// until the viewer shares a location.
type DiscoverService interface {
	ListCandidates(viewerID uint, limit int, radiusKm float64) ([]models.DiscoverCandidate, error)
	GetCandidate(viewerID uint, handle string) (*models.DiscoverCandidate, error)
}

type discoverService struct {
	Config   *config.Config
	authRepo db.AuthRepository
	log      *zap.Logger
}

func NewDiscoverService(authRepo db.AuthRepository, conf *config.Config, log *zap.Logger) DiscoverService {
	return &discoverService{
		Config:   conf,
		authRepo: authRepo,
		log:      log,
	}
}

func (d *discoverService) ListCandidates(viewerID uint, limit int, radiusKm float64) ([]models.DiscoverCandidate, error) {
	if limit <= 0 {
		limit = defaultDiscoverLimit
	}
	if limit > maxDiscoverLimit {
		limit = maxDiscoverLimit
	}

	viewer, err := d.authRepo.GetUserProfile(viewerID)
	if err != nil {
		return nil, err
	}

	users, err := d.authRepo.ListDiscoverCandidates(viewerID, limit)
	if err != nil {
		return nil, err
	}

	capped := radiusKm > 0 && hasLocation(viewer)
	candidates := make([]models.DiscoverCandidate, 0, len(users))
	for i := range users {
		candidate := buildCandidate(viewer, &users[i])
		if capped && (candidate.DistanceKm == nil || *candidate.DistanceKm > radiusKm) {
			continue
		}
		candidates = append(candidates, candidate)
	}

	// Members we can place come first, nearest up top.
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i].DistanceKm, candidates[j].DistanceKm
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return *a < *b
	})

	return candidates, nil
}

// GetCandidate returns one member's card the way the viewer sees it.
func (d *discoverService) GetCandidate(viewerID uint, handle string) (*models.DiscoverCandidate, error) {
	member, err := d.authRepo.FindUserByHandle(handle)
	if err != nil {
		return nil, err
	}

	viewer, err := d.authRepo.GetUserProfile(viewerID)
	if err != nil {
		return nil, err
	}

	full, err := d.authRepo.GetUserProfile(member.ID)
	if err != nil {
		return nil, err
	}

	candidate := buildCandidate(viewer, full)
	return &candidate, nil
}

func buildCandidate(viewer, user *models.User) models.DiscoverCandidate {
	candidate := models.DiscoverCandidate{
		UserResponse: models.NewUserResponse(user),
		Interests:    make([]string, 0, len(user.Interests)),
		Photos:       make([]string, 0, len(user.Photos)),
	}

	mine := make(map[string]struct{}, len(viewer.Interests))
	for _, interest := range viewer.Interests {
		mine[interest.Name] = struct{}{}
	}
	for _, interest := range user.Interests {
		candidate.Interests = append(candidate.Interests, interest.Name)
		if _, ok := mine[interest.Name]; ok {
			candidate.SharedInterests++
		}
	}
	for _, photo := range user.Photos {
		candidate.Photos = append(candidate.Photos, photo.URL)
	}

	if hasLocation(viewer) && hasLocation(user) {
		distance := utils.Haversine(viewer.Latitude, viewer.Longitude, user.Latitude, user.Longitude)
		candidate.DistanceKm = &distance
	}
	return candidate
}

// hasLocation treats the zero value as "never shared".
func hasLocation(u *models.User) bool {
	return u.Latitude != 0 || u.Longitude != 0
}
