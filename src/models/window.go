package models

import "time"

// AcademicWindow ช่วงเวลาเปิดส่งรายงานและช่วงเวลาอุทธรณ์ของแต่ละปีการศึกษา
type AcademicWindow struct {
	AcademicYear    string     `bson:"academicYear" json:"academicYear"`
	SubmissionStart *time.Time `bson:"submissionStart,omitempty" json:"submissionStart"`
	SubmissionEnd   *time.Time `bson:"submissionEnd,omitempty" json:"submissionEnd"`
	AppealStart     *time.Time `bson:"appealStart,omitempty" json:"appealStart"`
	AppealEnd       *time.Time `bson:"appealEnd,omitempty" json:"appealEnd"`
	UpdatedBy       string     `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
	UpdatedAt       time.Time  `bson:"updatedAt" json:"updatedAt"`
}
