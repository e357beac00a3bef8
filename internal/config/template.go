package config

// Template is written when `vozbot config` finds no config file.
const Template = `# Twitch chat
chat:
  channel: ""
  # oauth:... token, or set TWITCH_TOKEN
  token: ""
  # messages starting with this word followed by a space are answered
  trigger: "!IA"

# Answer generation
ai:
  # gemini, openai or anthropic
  provider: "gemini"
  # model: "gemini-2.0-flash"
  # or set GEMINI_API_KEY
  api_key: ""
  # system instruction; empty uses the built-in personality
  personality: ""
  max_tokens: 150
  timeout: "30s"

# ElevenLabs premium voice
voice:
  # or set ELEVENLABS_API_KEY
  api_key: ""
  voice_id: "21m00Tcm4TlvDq8ikWAM"
  model_id: "eleven_multilingual_v2"
  output_format: "mp3_44100_128"
  timeout: "30s"
  # after a quota error, retry the premium voice this often (0 never retries)
  recovery_interval: "15m"

# Free fallback voice (needs gtts-cli: pip install gTTS)
gtts:
  language: "es"
  slow: false

audio:
  # output device index from "vozbot devices", -1 for the default device
  device: -1
  # 0 to 100
  volume: 100
  ffmpeg: "ffmpeg"

memory:
  # answers remembered per user, 1 to 10
  capacity: 10

log:
  # debug, info, warn or error
  level: "info"

report:
  # JSON status events: stdout, stderr, a file path or empty
  events: ""
`
