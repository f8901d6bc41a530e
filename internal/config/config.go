package config

// Config собирает параметры одного экспорта: источник, выходной файл,
// геометрия и кодек.
type Config struct {
	VideoPath    string
	EventsPath   string
	OutputVideo  string
	Width        int
	Height       int
	FPS          int
	Duration     float64
	SeekTimeout  float64 // секунды ожидания seek до принудительного продолжения
	VideoEncoder string
	Quality      int
	ShowStats    bool
	BuildVersion string
}

// StyleConfig описывает оформление кадра. Поля сериализуются в YAML
// проекта; отсутствующие поля получают значения из DefaultStyle.
type StyleConfig struct {
	Padding         int     `yaml:"padding"`
	CornerRadius    int     `yaml:"corner_radius"`
	Shadow          bool    `yaml:"shadow"`
	ShadowIntensity float64 `yaml:"shadow_intensity"`

	BGType   string `yaml:"bg_type"`   // solid, linear, radial, image
	BGColor  string `yaml:"bg_color"`  // #rrggbb
	BGColor2 string `yaml:"bg_color2"` // вторая точка градиента
	BGImage  string `yaml:"bg_image"`  // путь к фоновому изображению

	CursorStyle  string  `yaml:"cursor_style"` // macos, windows, minimal, neon, outlined
	CursorScale  float64 `yaml:"cursor_scale"`
	CursorSpeed  string  `yaml:"cursor_speed"` // rapid, medium, slow
	ClickEffects bool    `yaml:"click_effects"`

	MotionBlurScreen bool `yaml:"motion_blur_screen"`
	MotionBlurCursor bool `yaml:"motion_blur_cursor"`

	FollowCursor bool    `yaml:"follow_cursor"`
	FollowZoom   float64 `yaml:"follow_zoom"`
	PanSpeed     string  `yaml:"pan_speed"` // slow, medium, fast
}

// DefaultStyle возвращает оформление по умолчанию. Загрузка проекта
// накладывает YAML поверх этих значений.
func DefaultStyle() StyleConfig {
	return StyleConfig{
		Padding:         48,
		CornerRadius:    16,
		Shadow:          true,
		ShadowIntensity: 0.6,
		BGType:          "solid",
		BGColor:         "#1e1e2e",
		BGColor2:        "#30304a",
		CursorStyle:     "macos",
		CursorScale:     1.0,
		CursorSpeed:     "medium",
		ClickEffects:    true,
		FollowZoom:      1.8,
		PanSpeed:        "medium",
	}
}
