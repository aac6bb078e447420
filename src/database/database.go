package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"Backend-QA-Portal/src/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var (
	client     *mongo.Client
	once       sync.Once // ป้องกันการรัน ConnectMongoDB() ซ้ำ
	connectErr error

	DB                          *mongo.Database
	SubmissionCollection        *mongo.Collection
	ReportSnapshotCollection    *mongo.Collection
	ResultPublicationCollection *mongo.Collection
	AcademicWindowCollection    *mongo.Collection
)

// ConnectMongoDB เชื่อมต่อกับ MongoDB แค่ครั้งเดียว
func ConnectMongoDB(uri, dbName string) error {
	log := logger.Component("database")

	once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		client, connectErr = mongo.Connect(ctx, options.Client().ApplyURI(uri))
		if connectErr != nil {
			connectErr = fmt.Errorf("failed to connect to MongoDB: %w", connectErr)
			return
		}

		// ตรวจสอบการเชื่อมต่อ
		if connectErr = client.Ping(ctx, readpref.Primary()); connectErr != nil {
			connectErr = fmt.Errorf("MongoDB ping failed: %w", connectErr)
			return
		}

		DB = client.Database(dbName)
		SubmissionCollection = DB.Collection("submissions")
		ReportSnapshotCollection = DB.Collection("reportSnapshots")
		ResultPublicationCollection = DB.Collection("resultPublications")
		AcademicWindowCollection = DB.Collection("academicWindows")

		log.Info().Str("db", dbName).Msg("✅ MongoDB connected successfully")
	})

	return connectErr
}

// EnsureIndexes สร้าง index ที่ query และ unique constraint ต้องใช้
func EnsureIndexes(ctx context.Context) error {
	if DB == nil {
		return fmt.Errorf("database not connected")
	}

	indexes := map[*mongo.Collection][]mongo.IndexModel{
		SubmissionCollection: {
			{
				// หนึ่งภาควิชาส่งได้หนึ่งฉบับต่อปีการศึกษา
				Keys:    bson.D{{Key: "department", Value: 1}, {Key: "academicYear", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_department_year"),
			},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "academicYear", Value: 1}}},
		},
		ReportSnapshotCollection: {
			{Keys: bson.D{{Key: "academicYear", Value: 1}, {Key: "generation", Value: 1}, {Key: "schoolId", Value: 1}}},
		},
		ResultPublicationCollection: {
			{
				Keys:    bson.D{{Key: "academicYear", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		AcademicWindowCollection: {
			{
				Keys:    bson.D{{Key: "academicYear", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
	}

	for coll, models := range indexes {
		if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

func Disconnect(ctx context.Context) error {
	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}
