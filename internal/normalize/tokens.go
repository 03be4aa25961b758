package normalize

var (
	subtitleTokens = []string{"multi", "multisubs"}
	miscTokens     = []string{
		"cd1", "cd2", "1cd", "2cd", "custom", "internal", "repack", "read.nfo",
		"readnfo", "nfofix", "proper", "rerip", "dubbed", "subbed", "extended",
		"unrated", "xxx", "nfo", "dvxa", "web",
	}
	formatTokens = []string{
		"ac3", "divx", "fragment", "limited", "ogg", "ogm", "ntsc", "pal",
		"ps3avchd", "r1", "r3", "r5", "720i", "720p", "1080i", "1080p", "remux",
		"x264", "xvid", "vorbis", "aac", "dts", "fs", "ws", "1920x1080",
		"1280x720", "h264", "h", "264", "prores", "uhd", "2160p", "truehd",
		"atmos", "hevc",
	}
	editionTokens = []string{"se"}
	sourceTokens  = []string{
		"bdrc", "bdrip", "bluray", "bd", "brrip", "hdrip", "hddvd", "hddvdrip",
		"cam",
		"ddc", "dvdrip", "dvd", "r1", "r3", "r5",
		"retail",
		"dsr", "dsrip", "hdtv", "pdtv", "ppv",
		"stv", "tvrip",
		"bdscr", "dvdscr", "dvdscreener", "scr", "screener",
		"svcd", "vcd",
		"tc", "telecine",
		"ts", "telesync",
		"webrip", "web-dl",
		"wp", "workprint",
	}
	videoExtensions = []string{
		"3g2", "3gp", "asf", "asx", "avc", "avi", "avs", "bivx", "bup", "divx",
		"dv", "dvr-ms", "evo", "fli", "flv", "m2t", "m2ts", "m2v", "m4v", "mkv",
		"mov", "mp4", "mpeg", "mpg", "mts", "nsv", "nuv", "ogm", "ogv", "tp",
		"pva", "qt", "rm", "rmvb", "sdp", "svq3", "strm", "ts", "ty", "vdr",
		"viv", "vob", "vp3", "wmv", "wtv", "xsp", "xvid", "webm",
	}
	bogusSuffixes = []string{".dvdmedia"}
)

// smallWords stay lower case unless they open or close a title.
var smallWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "as": {}, "at": {}, "but": {}, "by": {},
	"en": {}, "for": {}, "if": {}, "in": {}, "of": {}, "on": {}, "or": {},
	"the": {}, "to": {}, "v": {}, "via": {}, "vs": {},
}

// DefaultNetworks lists broadcaster names removed from clean titles. Names are
// matched as lowercase substrings and only the longest hit is removed.
var DefaultNetworks = []string{
	"sky sports f1", "sky sports main event", "sky sports premier league",
	"sky sports football", "sky sports cricket", "sky sports golf",
	"sky sports racing", "sky sports arena", "sky sports action",
	"sky sports", "skysports", "skyf1",
	"bt sport 1", "bt sport 2", "bt sport 3", "bt sport", "btsport",
	"tnt sports", "tntsports",
	"fox sports 1", "fox sports 2", "fox sports", "foxsports", "fs1", "fs2",
	"espn2", "espnu", "espnews", "espn",
	"nbcsn", "nbc sports", "nbcsports", "peacock",
	"cbs sports", "cbssports",
	"abc sports", "sportsnet",
	"bbc one", "bbc two", "bbc sport", "bbcsport", "bbc",
	"itv1", "itv4", "itvx", "channel 4", "channel4",
	"eurosport 1", "eurosport 2", "eurosport", "dazn",
	"ziggo sport", "ziggosport", "viaplay", "canalplus",
	"servus tv", "servustv", "orf1", "rtl7",
	"stan sport", "kayo", "foxtel", "supersport",
	"f1tv", "f1 tv", "motogp tv", "nfl network", "nhl network", "mlb network",
	"nba tv", "redzone", "flosports",
}
