package config

import "github.com/caarlos0/env/v10"

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	LLMBaseURL string `env:"LLM_BASE_URL" envDefault:"https://api.openai.com/v1"`
	LLMAPIKey  string `env:"LLM_API_KEY,required"`

	// Backend por ruta: cada ruta de generacion puede usar un modelo distinto.
	LLMModelNormal   string `env:"LLM_MODEL_NORMAL" envDefault:"gpt-5.1"`
	LLMModelRomance  string `env:"LLM_MODEL_ROMANCE" envDefault:"gpt-5.1"`
	LLMModelExplicit string `env:"LLM_MODEL_EXPLICIT" envDefault:"gpt-5.1"`
	LLMModelFetish   string `env:"LLM_MODEL_FETISH" envDefault:"gpt-5.1"`
	LLMEmbedModel    string `env:"LLM_EMBED_MODEL" envDefault:"text-embedding-3-small"`

	EmbeddingDimension int `env:"EMBEDDING_DIMENSION" envDefault:"1536"`

	JWTSecret        string `env:"JWT_SECRET"`
	APIKeyHash       string `env:"API_KEY_HASH"`
	DebugAuthEnabled bool   `env:"DEBUG_AUTH_ENABLED" envDefault:"false"`

	JudgeEnabled   bool    `env:"CLASSIFIER_JUDGE_ENABLED" envDefault:"true"`
	JudgeThreshold float64 `env:"CLASSIFIER_JUDGE_THRESHOLD" envDefault:"0.7"`

	RouteLockMessages   int `env:"SESSION_ROUTE_LOCK_MESSAGES" envDefault:"5"`
	SessionTimeoutHours int `env:"SESSION_TIMEOUT_HOURS" envDefault:"24"`

	// Metodo por detector: llm, pattern o hybrid.
	EmotionMethod       string `env:"DETECTOR_EMOTION_METHOD" envDefault:"hybrid"`
	PersonalityMethod   string `env:"DETECTOR_PERSONALITY_METHOD" envDefault:"hybrid"`
	PreferenceMethod    string `env:"DETECTOR_PREFERENCE_METHOD" envDefault:"hybrid"`
	GoalMethod          string `env:"DETECTOR_GOAL_METHOD" envDefault:"hybrid"`
	ContradictionMethod string `env:"DETECTOR_CONTRADICTION_METHOD" envDefault:"hybrid"`
	ExtractionMethod    string `env:"DETECTOR_EXTRACTION_METHOD" envDefault:"hybrid"`

	EmotionMinConfidence       float64 `env:"DETECTOR_EMOTION_MIN_CONFIDENCE" envDefault:"0.5"`
	PersonalityMinConfidence   float64 `env:"DETECTOR_PERSONALITY_MIN_CONFIDENCE" envDefault:"0.6"`
	PreferenceMinConfidence    float64 `env:"DETECTOR_PREFERENCE_MIN_CONFIDENCE" envDefault:"0.6"`
	GoalMinConfidence          float64 `env:"DETECTOR_GOAL_MIN_CONFIDENCE" envDefault:"0.6"`
	ContradictionMinConfidence float64 `env:"DETECTOR_CONTRADICTION_MIN_CONFIDENCE" envDefault:"0.7"`
	ExtractionMinConfidence    float64 `env:"DETECTOR_EXTRACTION_MIN_CONFIDENCE" envDefault:"0.6"`

	MemoryTopK               int     `env:"MEMORY_TOP_K" envDefault:"5"`
	MemorySimilarityFloor    float64 `env:"MEMORY_SIMILARITY_FLOOR" envDefault:"0.25"`
	ContradictionSimilarity  float64 `env:"MEMORY_CONTRADICTION_SIMILARITY" envDefault:"0.40"`
	ContradictionConfidence  float64 `env:"MEMORY_CONTRADICTION_CONFIDENCE" envDefault:"0.70"`
	RetrievalAlpha           float64 `env:"RETRIEVAL_ALPHA" envDefault:"0.7"`
	RetrievalBeta            float64 `env:"RETRIEVAL_BETA" envDefault:"0.3"`
	ShortTermMaxMessages     int     `env:"SHORT_TERM_MAX_MESSAGES" envDefault:"20"`
	BackgroundMinTurns       int     `env:"BACKGROUND_MIN_TURNS" envDefault:"3"`
	BackgroundWorkers        int     `env:"BACKGROUND_WORKERS" envDefault:"16"`
	RequestTimeoutSeconds    int     `env:"REQUEST_TIMEOUT_SECONDS" envDefault:"60"`
	DetectorTimeoutSeconds   int     `env:"DETECTOR_TIMEOUT_SECONDS" envDefault:"5"`
	StreamIdleTimeoutSeconds int     `env:"STREAM_IDLE_TIMEOUT_SECONDS" envDefault:"30"`
	RelationshipMilestones   []int   `env:"RELATIONSHIP_MILESTONES" envDefault:"10,50,100,500,1000" envSeparator:","`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
