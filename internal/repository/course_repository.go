package repository

import (
	"noted_backend/internal/model"

	"gorm.io/gorm"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) Create(course *model.Course) error {
	return r.DB.Create(course).Error
}

func (r *CourseRepository) FindByID(id uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.First(&course, id).Error
	return &course, err
}

func (r *CourseRepository) FindByName(name string) (*model.Course, error) {
	var course model.Course
	err := r.DB.Where("name = ?", name).First(&course).Error
	return &course, err
}

func (r *CourseRepository) List() ([]model.Course, error) {
	var courses []model.Course
	err := r.DB.Order("name ASC").Find(&courses).Error
	return courses, err
}

func (r *CourseRepository) Update(course *model.Course) error {
	return r.DB.Save(course).Error
}

func (r *CourseRepository) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("course_id = ?", id).Delete(&model.SessionCourse{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", id).Delete(&model.FlashcardCourse{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&model.Course{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// UpsertSessionCourse replaces any existing link for the session.
func (r *CourseRepository) UpsertSessionCourse(link *model.SessionCourse) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", link.SessionID).Delete(&model.SessionCourse{}).Error; err != nil {
			return err
		}
		return tx.Create(link).Error
	})
}

func (r *CourseRepository) FindSessionCourse(sessionID uint) (*model.SessionCourse, error) {
	var link model.SessionCourse
	err := r.DB.Where("session_id = ?", sessionID).First(&link).Error
	return &link, err
}

func (r *CourseRepository) FindSessionCourseIDs(sessionID uint) ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.SessionCourse{}).
		Where("session_id = ?", sessionID).
		Pluck("course_id", &ids).Error
	return ids, err
}
