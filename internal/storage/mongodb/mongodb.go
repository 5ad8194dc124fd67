// Package mongodb реализует хранилище учётных записей на MongoDB.
// Учётные записи лежат в коллекции users, email защищён уникальным индексом.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/magabrotheeeer/user-management/internal/lib/apperr"
	"github.com/magabrotheeeer/user-management/internal/models"
)

const collectionName = "users"

// Storage инкапсулирует клиента MongoDB и коллекцию учётных записей.
type Storage struct {
	client  *mongo.Client
	users   *mongo.Collection
	timeout time.Duration
}

type accountDoc struct {
	ID        string     `bson:"_id"`
	FullName  string     `bson:"fullName"`
	Email     string     `bson:"email"`
	Password  string     `bson:"password"`
	Role      string     `bson:"role"`
	Status    string     `bson:"status"`
	LastLogin *time.Time `bson:"lastLogin,omitempty"`
	CreatedAt time.Time  `bson:"createdAt"`
}

func toDoc(a *models.Account) accountDoc {
	return accountDoc{
		ID:        a.ID,
		FullName:  a.FullName,
		Email:     a.Email,
		Password:  a.PasswordHash,
		Role:      string(a.Role),
		Status:    string(a.Status),
		LastLogin: a.LastLogin,
		CreatedAt: a.CreatedAt,
	}
}

func (d accountDoc) toModel() (*models.Account, error) {
	role, err := models.ParseRole(d.Role)
	if err != nil {
		return nil, err
	}
	status := models.StatusActive
	if d.Status != "" {
		if status, err = models.ParseStatus(d.Status); err != nil {
			return nil, err
		}
	}
	a := &models.Account{
		ID:           d.ID,
		FullName:     d.FullName,
		Email:        d.Email,
		PasswordHash: d.Password,
		Role:         role,
		Status:       status,
		CreatedAt:    d.CreatedAt.UTC(),
	}
	if d.LastLogin != nil {
		t := d.LastLogin.UTC()
		a.LastLogin = &t
	}
	return a, nil
}

// New подключается к MongoDB, проверяет соединение и создаёт уникальный индекс по email.
func New(ctx context.Context, uri, database string, timeout time.Duration) (*Storage, error) {
	const op = "mongodb.New"

	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri).SetTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err = client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s := &Storage{
		client:  client,
		users:   client.Database(database).Collection(collectionName),
		timeout: timeout,
	}
	if err = s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

func (s *Storage) ensureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("email_unique"),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("created_at"),
		},
	})
	return err
}

func storeErr(op string, err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w", op, apperr.ErrConflict)
	default:
		return fmt.Errorf("%s: %w: %w", op, apperr.ErrStore, err)
	}
}

// Create сохраняет новую учётную запись.
func (s *Storage) Create(ctx context.Context, account *models.Account) error {
	const op = "mongodb.Create"
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.users.InsertOne(ctx, toDoc(account)); err != nil {
		return storeErr(op, err)
	}
	return nil
}

func (s *Storage) findOne(ctx context.Context, op string, filter bson.D) (*models.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var doc accountDoc
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, storeErr(op, err)
	}
	a, err := doc.toModel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, apperr.ErrStore, err)
	}
	return a, nil
}

// GetByID возвращает учётную запись по ID.
func (s *Storage) GetByID(ctx context.Context, id string) (*models.Account, error) {
	return s.findOne(ctx, "mongodb.GetByID", bson.D{{Key: "_id", Value: id}})
}

// GetByEmail возвращает учётную запись по email.
func (s *Storage) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return s.findOne(ctx, "mongodb.GetByEmail", bson.D{{Key: "email", Value: email}})
}

// UpdateProfile меняет имя и email одной операцией findOneAndUpdate.
func (s *Storage) UpdateProfile(ctx context.Context, id, fullName, email string) (*models.Account, error) {
	const op = "mongodb.UpdateProfile"
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "fullName", Value: fullName},
		{Key: "email", Value: email},
	}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc accountDoc
	if err := s.users.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: id}}, update, opts).Decode(&doc); err != nil {
		return nil, storeErr(op, err)
	}
	a, err := doc.toModel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, apperr.ErrStore, err)
	}
	return a, nil
}

func (s *Storage) updateByID(ctx context.Context, op string, filter bson.D, set bson.D) (*mongo.UpdateResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.users.UpdateOne(ctx, filter, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return nil, storeErr(op, err)
	}
	return res, nil
}

// UpdatePassword перезаписывает хэш пароля.
func (s *Storage) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const op = "mongodb.UpdatePassword"
	res, err := s.updateByID(ctx, op, bson.D{{Key: "_id", Value: id}}, bson.D{{Key: "password", Value: passwordHash}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	return nil
}

// SetStatus меняет статус. Фильтр исключает администраторов, поэтому их
// запись не меняется даже при гонке с проверкой в сервисе.
func (s *Storage) SetStatus(ctx context.Context, id string, status models.Status) error {
	const op = "mongodb.SetStatus"
	filter := bson.D{
		{Key: "_id", Value: id},
		{Key: "role", Value: bson.D{{Key: "$ne", Value: string(models.RoleAdmin)}}},
	}
	res, err := s.updateByID(ctx, op, filter, bson.D{{Key: "status", Value: string(status)}})
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}
	if _, err = s.GetByID(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: admin status is immutable: %w", op, apperr.ErrForbidden)
}

// TouchLastLogin записывает время последнего входа.
func (s *Storage) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	const op = "mongodb.TouchLastLogin"
	res, err := s.updateByID(ctx, op, bson.D{{Key: "_id", Value: id}}, bson.D{{Key: "lastLogin", Value: at.UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	return nil
}

// List возвращает страницу учётных записей в порядке создания.
func (s *Storage) List(ctx context.Context, offset, limit int) ([]*models.Account, error) {
	const op = "mongodb.List"
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cur, err := s.users.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, storeErr(op, err)
	}
	var docs []accountDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, storeErr(op, err)
	}

	result := make([]*models.Account, 0, len(docs))
	for _, d := range docs {
		a, err := d.toModel()
		if err != nil {
			return nil, fmt.Errorf("%s: %w: %w", op, apperr.ErrStore, err)
		}
		result = append(result, a)
	}
	return result, nil
}

// Count возвращает число учётных записей.
func (s *Storage) Count(ctx context.Context) (int64, error) {
	const op = "mongodb.Count"
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.users.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, storeErr(op, err)
	}
	return n, nil
}

// Close отключается от MongoDB.
func (s *Storage) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
