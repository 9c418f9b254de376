package presets

import (
	"context"
	"log/slog"

	"github.com/valkey-io/valkey-go"

	"github.com/jota2rz/led-scroller/internal/scene"
)

const (
	valkeyIndexKey  = "ledscroller:presets"
	valkeyKeyPrefix = "ledscroller:preset:"
)

// ValkeyRepository stores each user preset as a hash of its key-value
// record, with the preset names kept in a set.
type ValkeyRepository struct {
	client valkey.Client
}

// NewValkeyRepository connects to the Valkey server at addr.
func NewValkeyRepository(addr string) (*ValkeyRepository, error) {
	client, err := valkey.NewClient(valkey.ClientOption{InitAddress: []string{addr}})
	if err != nil {
		return nil, err
	}
	return &ValkeyRepository{client: client}, nil
}

// Close releases the client connection.
func (r *ValkeyRepository) Close() {
	r.client.Close()
}

func (r *ValkeyRepository) List(ctx context.Context) (map[string]scene.Config, error) {
	names, err := r.client.Do(ctx, r.client.B().Smembers().Key(valkeyIndexKey).Build()).AsStrSlice()
	if err != nil {
		return nil, err
	}
	out := make(map[string]scene.Config, len(names))
	for _, name := range names {
		rec, err := r.client.Do(ctx, r.client.B().Hgetall().Key(valkeyKeyPrefix+name).Build()).AsStrMap()
		if err != nil {
			return nil, err
		}
		if len(rec) == 0 {
			continue
		}
		cfg := Default()
		if err := cfg.ApplyRecord(rec); err != nil {
			slog.Warn("skipping unreadable preset", "name", name, "error", err)
			continue
		}
		out[name] = cfg
	}
	return out, nil
}

func (r *ValkeyRepository) Save(ctx context.Context, name string, cfg scene.Config) error {
	key := valkeyKeyPrefix + name
	hset := r.client.B().Hset().Key(key).FieldValue()
	for field, value := range cfg.Record() {
		hset = hset.FieldValue(field, value)
	}
	cmds := valkey.Commands{
		r.client.B().Del().Key(key).Build(),
		hset.Build(),
		r.client.B().Sadd().Key(valkeyIndexKey).Member(name).Build(),
	}
	for _, res := range r.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return err
		}
	}
	return nil
}

func (r *ValkeyRepository) Delete(ctx context.Context, name string) error {
	cmds := valkey.Commands{
		r.client.B().Del().Key(valkeyKeyPrefix + name).Build(),
		r.client.B().Srem().Key(valkeyIndexKey).Member(name).Build(),
	}
	for _, res := range r.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return err
		}
	}
	return nil
}
