package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"aprendo-backend/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const bucketName = "certificates"

type artifactStore struct {
	db     *mongo.Database
	bucket *gridfs.Bucket
}

// NewArtifactStore creates a GridFS-backed store for certificate files.
func NewArtifactStore(db *mongo.Database) (domain.ArtifactStore, error) {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(bucketName))
	if err != nil {
		return nil, fmt.Errorf("create gridfs bucket: %w", err)
	}
	return &artifactStore{db: db, bucket: bucket}, nil
}

func (s *artifactStore) Upload(ctx context.Context, fileName, contentType string, data []byte, userID uint, courseID string) (string, error) {
	uploadOpts := options.GridFSUpload().SetMetadata(bson.M{
		"content_type": contentType,
		"user_id":      userID,
		"course_id":    courseID,
	})

	objectID, err := s.bucket.UploadFromStream(fileName, bytes.NewReader(data), uploadOpts)
	if err != nil {
		return "", fmt.Errorf("upload certificate file: %w", err)
	}
	return objectID.Hex(), nil
}

func (s *artifactStore) Download(ctx context.Context, fileID string) (io.ReadCloser, *domain.ArtifactInfo, error) {
	objectID, err := primitive.ObjectIDFromHex(fileID)
	if err != nil {
		return nil, nil, errors.New("invalid file id")
	}

	info, err := s.getInfo(ctx, objectID)
	if err != nil {
		return nil, nil, err
	}

	stream, err := s.bucket.OpenDownloadStream(objectID)
	if err != nil {
		return nil, nil, fmt.Errorf("open certificate file: %w", err)
	}
	return stream, info, nil
}

func (s *artifactStore) Delete(ctx context.Context, fileID string) error {
	objectID, err := primitive.ObjectIDFromHex(fileID)
	if err != nil {
		return errors.New("invalid file id")
	}
	if err := s.bucket.Delete(objectID); err != nil {
		return fmt.Errorf("delete certificate file: %w", err)
	}
	return nil
}

func (s *artifactStore) getInfo(ctx context.Context, objectID primitive.ObjectID) (*domain.ArtifactInfo, error) {
	collection := s.db.Collection(bucketName + ".files")

	var result struct {
		ID         primitive.ObjectID `bson:"_id"`
		Filename   string             `bson:"filename"`
		Length     int64              `bson:"length"`
		UploadDate time.Time          `bson:"uploadDate"`
		Metadata   bson.M             `bson:"metadata"`
	}

	err := collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&result)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.New("file not found")
		}
		return nil, err
	}

	contentType := "application/pdf"
	if result.Metadata != nil {
		if v, ok := result.Metadata["content_type"].(string); ok && v != "" {
			contentType = v
		}
	}

	return &domain.ArtifactInfo{
		ID:          result.ID.Hex(),
		FileName:    result.Filename,
		ContentType: contentType,
		Size:        result.Length,
		UploadDate:  result.UploadDate,
	}, nil
}
