package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CriterionScoring ค่าคงที่ของแต่ละเกณฑ์ที่ใช้คำนวณคะแนนถ่วงน้ำหนัก
type CriterionScoring struct {
	Code      string  `yaml:"code" json:"code"`
	Name      string  `yaml:"name" json:"name"`
	MaxMarks  float64 `yaml:"maxMarks" json:"maxMarks"`
	Weightage float64 `yaml:"weightage" json:"weightage"`
}

type ReportCriterion struct {
	Code          string  `bson:"code" json:"code"`
	Name          string  `bson:"name" json:"name"`
	Weightage     float64 `bson:"weightage" json:"weightage"`
	MaxMarks      float64 `bson:"maxMarks" json:"maxMarks"`
	MarksAwarded  float64 `bson:"marksAwarded" json:"marksAwarded"`
	Percentage    float64 `bson:"percentage" json:"percentage"`
	WeightedScore float64 `bson:"weightedScore" json:"weightedScore"`
	SNo           int     `bson:"sNo" json:"sNo"`
}

type FinalScore struct {
	TotalWeightedScore float64 `bson:"totalWeightedScore" json:"totalWeightedScore"`
	OutOf              int     `bson:"outOf" json:"outOf"`
}

type ReportSnapshot struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AcademicYear string             `bson:"academicYear" json:"academicYear"`
	Generation   string             `bson:"generation" json:"-"`
	SchoolID     string             `bson:"schoolId" json:"schoolId"`
	SchoolName   string             `bson:"schoolName" json:"schoolName"`
	Rank         int                `bson:"rank" json:"rank"`
	Criteria     []ReportCriterion  `bson:"criteria" json:"criteria"`
	FinalScore   FinalScore         `bson:"finalScore" json:"finalScore"`
	GeneratedAt  time.Time          `bson:"generatedAt" json:"generatedAt"`
}

type ResultPublication struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AcademicYear string             `bson:"academicYear" json:"academicYear"`
	IsPublished  bool               `bson:"isPublished" json:"isPublished"`
	PublishedAt  *time.Time         `bson:"publishedAt,omitempty" json:"publishedAt"`
	UpdatedBy    string             `bson:"updatedBy" json:"updatedBy"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
	Generation   string             `bson:"generation,omitempty" json:"-"`
}
