package push

import (
	"context"
	"encoding/json"
	"time"

	"pixels/database"
	"pixels/models"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Service sends web-push notifications. One subscription per user,
// upserted on subscribe, deleted when the push endpoint reports it gone.
type Service struct {
	db         *database.Mongo
	publicKey  string
	privateKey string
	subscriber string
	log        *zap.SugaredLogger
}

func New(db *database.Mongo, publicKey, privateKey, subscriber string, log *zap.SugaredLogger) *Service {
	return &Service{
		db:         db,
		publicKey:  publicKey,
		privateKey: privateKey,
		subscriber: subscriber,
		log:        log,
	}
}

func (s *Service) PublicKey() string {
	return s.publicKey
}

func (s *Service) Subscribe(ctx context.Context, userID primitive.ObjectID, sub webpush.Subscription) error {
	record := models.PushSubscription{
		ID:     primitive.NewObjectID(),
		UserID: userID,
		Sub:    sub,
	}
	_, err := s.db.Subscriptions.UpdateOne(ctx,
		bson.M{"userId": userID},
		bson.M{"$set": bson.M{"userId": record.UserID, "sub": record.Sub}},
		options.Update().SetUpsert(true),
	)
	return err
}

// Notify sends a notification to the user in the background. Push is a
// courtesy: failures are logged, never surfaced to the request.
func (s *Service) Notify(userID primitive.ObjectID, title, body, url string) {
	if s.privateKey == "" {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.log.Errorw("panic in push notification", "recover", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var sub models.PushSubscription
		err := s.db.Subscriptions.FindOne(ctx, bson.M{"userId": userID}).Decode(&sub)
		if err == mongo.ErrNoDocuments {
			return
		}
		if err != nil {
			s.log.Warnw("push subscription lookup failed", "userId", userID.Hex(), "error", err)
			return
		}

		payload, err := json.Marshal(gin.H{
			"title": title,
			"body":  body,
			"data": gin.H{
				"url":       url,
				"timestamp": time.Now().Unix(),
			},
		})
		if err != nil {
			return
		}

		resp, err := webpush.SendNotification(payload, &sub.Sub, &webpush.Options{
			Subscriber:      s.subscriber,
			VAPIDPublicKey:  s.publicKey,
			VAPIDPrivateKey: s.privateKey,
			TTL:             30,
		})
		if err != nil {
			s.log.Warnw("push send failed", "userId", userID.Hex(), "error", err)
			if resp != nil && resp.StatusCode == 410 {
				if _, delErr := s.db.Subscriptions.DeleteOne(ctx, bson.M{"userId": userID}); delErr != nil {
					s.log.Warnw("expired subscription cleanup failed", "error", delErr)
				}
			}
			return
		}
		resp.Body.Close()
	}()
}
