package service

import (
	"errors"
	"noted_backend/internal/model"
	"noted_backend/internal/repository"
	"noted_backend/internal/util"
	"strings"

	"gorm.io/gorm"
)

type CourseService struct {
	CourseRepo  *repository.CourseRepository
	SessionRepo *repository.SessionRepository
	Bus         *EventBus
}

func NewCourseService(courseRepo *repository.CourseRepository, sessionRepo *repository.SessionRepository, bus *EventBus) *CourseService {
	return &CourseService{CourseRepo: courseRepo, SessionRepo: sessionRepo, Bus: bus}
}

// Create is idempotent on the course name: creating an existing course
// returns it unchanged.
func (s *CourseService) Create(name, color string, aliases []string) (*model.Course, bool, error) {
	existing, err := s.CourseRepo.FindByName(name)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	course := &model.Course{Name: name, Color: color, Aliases: aliases}
	if err := s.CourseRepo.Create(course); err != nil {
		return nil, false, err
	}
	return course, true, nil
}

func (s *CourseService) Get(id uint) (*model.Course, error) {
	course, err := s.CourseRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrCourseNotFound
	}
	return course, err
}

func (s *CourseService) List() ([]model.Course, error) {
	return s.CourseRepo.List()
}

func (s *CourseService) Update(id uint, name, color string, aliases []string) (*model.Course, error) {
	course, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if name != "" {
		course.Name = name
	}
	if color != "" {
		course.Color = color
	}
	if aliases != nil {
		course.Aliases = aliases
	}

	if err := s.CourseRepo.Update(course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) Delete(id uint) error {
	err := s.CourseRepo.Delete(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrCourseNotFound
	}
	return err
}

// Assign links a session to a course, replacing any previous link.
func (s *CourseService) Assign(sessionID, courseID uint) (*model.SessionCourse, error) {
	if _, err := s.SessionRepo.FindByID(sessionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSessionNotFound
		}
		return nil, err
	}
	if _, err := s.Get(courseID); err != nil {
		return nil, err
	}

	link := &model.SessionCourse{
		SessionID:  sessionID,
		CourseID:   courseID,
		Confidence: 1.0,
		Source:     model.SessionCourseSourceManual,
	}
	if err := s.CourseRepo.UpsertSessionCourse(link); err != nil {
		return nil, err
	}

	s.Bus.Publish(EventCourseAssigned, &sessionID, "course assigned", map[string]interface{}{
		"courseId": courseID,
		"source":   model.SessionCourseSourceManual,
	})
	return link, nil
}

func (s *CourseService) SessionCourse(sessionID uint) (*model.SessionCourse, error) {
	link, err := s.CourseRepo.FindSessionCourse(sessionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrCourseNotFound
	}
	return link, err
}

// Suggest scans the session title and transcript for course names and
// aliases and links the best match as a suggestion. A name hit outranks an
// alias hit.
func (s *CourseService) Suggest(sessionID uint) (*model.Course, string, float64, error) {
	session, err := s.SessionRepo.FindByID(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", 0, util.ErrSessionNotFound
		}
		return nil, "", 0, err
	}

	transcript, err := s.SessionRepo.FullTranscript(sessionID)
	if err != nil {
		return nil, "", 0, err
	}
	haystack := strings.ToLower(session.Title + "\n" + transcript)

	courses, err := s.CourseRepo.List()
	if err != nil {
		return nil, "", 0, err
	}

	var best *model.Course
	var bestTerm string
	var bestConfidence float64

	for i := range courses {
		course := &courses[i]
		if name := strings.ToLower(course.Name); name != "" && strings.Contains(haystack, name) {
			if 0.9 > bestConfidence {
				best, bestTerm, bestConfidence = course, course.Name, 0.9
			}
			continue
		}
		for _, alias := range course.Aliases {
			if a := strings.ToLower(alias); a != "" && strings.Contains(haystack, a) {
				if 0.7 > bestConfidence {
					best, bestTerm, bestConfidence = course, alias, 0.7
				}
				break
			}
		}
	}

	if best == nil {
		return nil, "", 0, nil
	}

	link := &model.SessionCourse{
		SessionID:  sessionID,
		CourseID:   best.ID,
		Confidence: bestConfidence,
		Source:     model.SessionCourseSourceSuggested,
	}
	if err := s.CourseRepo.UpsertSessionCourse(link); err != nil {
		return nil, "", 0, err
	}

	s.Bus.Publish(EventCourseAssigned, &sessionID, "course suggested", map[string]interface{}{
		"courseId":   best.ID,
		"source":     model.SessionCourseSourceSuggested,
		"confidence": bestConfidence,
	})
	return best, bestTerm, bestConfidence, nil
}
