package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "qforms"

type Config struct {
	Addr        string
	DBUrl       string
	TokenSecret string
	TokenTTL    time.Duration
	Debug       bool

	ImageBackend   string
	UploadDir      string
	UploadBaseURL  string
	S3Bucket       string
	S3Region       string
	GCSBucket      string
	MaxUploadBytes int64
}

// defaults are read from QFORMS_* environment variables; flags override them.
type defaults struct {
	Host           string `envconfig:"HOST" default:"0.0.0.0"`
	Port           uint   `envconfig:"PORT" default:"80"`
	DBUrl          string `envconfig:"DB_URL" default:"qforms.sqlite"`
	TokenSecret    string `envconfig:"TOKEN_SECRET"`
	TokenTTL       uint   `envconfig:"TOKEN_TTL" default:"120"`
	Debug          bool   `envconfig:"DEBUG"`
	ImageBackend   string `envconfig:"IMAGE_BACKEND" default:"disk"`
	UploadDir      string `envconfig:"UPLOAD_DIR" default:"uploads"`
	UploadBaseURL  string `envconfig:"UPLOAD_BASE_URL" default:"/uploads"`
	S3Bucket       string `envconfig:"S3_BUCKET"`
	S3Region       string `envconfig:"S3_REGION" default:"us-east-1"`
	GCSBucket      string `envconfig:"GCS_BUCKET"`
	MaxUploadBytes int64  `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`
}

func Parse(args []string) (cfg Config, err error) {
	var env defaults
	if err = envconfig.Process(envPrefix, &env); err != nil {
		return
	}

	fs := flag.NewFlagSet("quick-forms", flag.ContinueOnError)
	host := fs.String("host", env.Host, "listen host name")
	port := fs.Uint("port", env.Port, "listen port number")
	fs.StringVar(&cfg.DBUrl, "db-url", env.DBUrl, "path to SQLite3 DB file")
	fs.StringVar(&cfg.TokenSecret, "token-secret", env.TokenSecret, "secret key for token encryption and decryption")
	ttl := fs.Uint("token-ttl", env.TokenTTL, "token TTL in seconds")
	fs.BoolVar(&cfg.Debug, "debug", env.Debug, "log at DEBUG level")
	fs.StringVar(&cfg.ImageBackend, "image-backend", env.ImageBackend, "where answer images are stored: disk, s3 or gcs")
	fs.StringVar(&cfg.UploadDir, "upload-dir", env.UploadDir, "directory for the disk image backend")
	fs.StringVar(&cfg.UploadBaseURL, "upload-base-url", env.UploadBaseURL, "URL prefix the disk image backend is served from")
	fs.StringVar(&cfg.S3Bucket, "s3-bucket", env.S3Bucket, "bucket for the s3 image backend")
	fs.StringVar(&cfg.S3Region, "s3-region", env.S3Region, "region for the s3 image backend")
	fs.StringVar(&cfg.GCSBucket, "gcs-bucket", env.GCSBucket, "bucket for the gcs image backend")
	fs.Int64Var(&cfg.MaxUploadBytes, "max-upload-bytes", env.MaxUploadBytes, "maximum size of a response submission with files")
	if err = fs.Parse(args); err != nil {
		return
	}

	cfg.Addr = net.JoinHostPort(*host, strconv.Itoa(int(*port)))
	cfg.TokenTTL = time.Duration(*ttl) * time.Second

	err = cfg.validate()
	return
}

func (cfg Config) validate() error {
	if cfg.TokenSecret == "" {
		return errors.New("missing parameter -token-secret")
	}
	switch cfg.ImageBackend {
	case "disk":
	case "s3":
		if cfg.S3Bucket == "" {
			return errors.New("image backend s3 needs -s3-bucket")
		}
	case "gcs":
		if cfg.GCSBucket == "" {
			return errors.New("image backend gcs needs -gcs-bucket")
		}
	default:
		return fmt.Errorf("unknown image backend %q", cfg.ImageBackend)
	}
	if cfg.MaxUploadBytes <= 0 {
		return errors.New("-max-upload-bytes must be positive")
	}
	return nil
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}
